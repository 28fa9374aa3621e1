package visa

import (
	"strings"

	"github.com/iago/trip-planner-back/internal/domain"
)

// Tasks turns one destination's requirement into preparation tasks.
func Tasks(destination string, requirement Requirement) []domain.Task {
	tasks := make([]domain.Task, 0, 2)
	primary := requirement.PrimaryRule

	switch requirement.Kind() {
	case RuleVisaFree:
		tasks = append(tasks, domain.Task{
			Title: "Check passport validity for " + destination,
			Description: "Ensure your passport is valid for entry to " + destination + ". " +
				"Required validity: " + requirement.PassportValidity + ". " +
				"Entry allowed for: " + primary.Duration + ". " +
				"Recommended: Verify 6 weeks before trip.",
			Category: domain.TaskCategoryDocumentation,
			Priority: domain.TaskPriorityHigh,
		})

	case RuleVisaRequired:
		var description strings.Builder
		description.WriteString("Apply for visa to " + destination + ". ")
		description.WriteString("Visa type: " + orDefault(primary.Name, "Required visa") + ". ")
		writeDetails(&description, primary.Duration, requirement.PassportValidity)
		switch {
		case primary.Link != "":
			description.WriteString("Application link: " + primary.Link + ". ")
		case requirement.EmbassyURL != "":
			description.WriteString("Embassy info: " + requirement.EmbassyURL + ". ")
		}
		description.WriteString("Recommended: Apply 6-8 weeks before trip.")

		tasks = append(tasks, domain.Task{
			Title:       "Apply for " + destination + " visa",
			Description: description.String(),
			Category:    domain.TaskCategoryVisa,
			Priority:    domain.TaskPriorityHigh,
		})

	case RuleExpedited:
		name := orDefault(primary.Name, "visa")
		var description strings.Builder
		description.WriteString("Obtain " + name + " for " + destination + ". ")
		writeDetails(&description, primary.Duration, requirement.PassportValidity)
		if primary.Link != "" {
			description.WriteString("More info: " + primary.Link + ". ")
		}
		if secondary := requirement.SecondaryRule; secondary.Name != "" {
			description.WriteString("Alternative: " + secondary.Name)
			if secondary.Duration != "" {
				description.WriteString(" (" + secondary.Duration + ")")
			}
			if secondary.Link != "" {
				description.WriteString(" - " + secondary.Link)
			}
			description.WriteString(". ")
		}
		description.WriteString("Recommended: Check requirements 3-4 weeks before trip.")

		tasks = append(tasks, domain.Task{
			Title:       "Get " + name + " for " + destination,
			Description: description.String(),
			Category:    domain.TaskCategoryVisa,
			Priority:    domain.TaskPriorityHigh,
		})

	default:
		tasks = append(tasks, ResearchTask(destination))
	}

	if registration := requirement.MandatoryRegistration; registration.Name != "" {
		description := "Complete " + registration.Name + " for " + destination + ". This is mandatory before arrival. "
		if registration.Link != "" {
			description += "Registration link: " + registration.Link + ". "
		}
		description += "Recommended: Complete 1-2 weeks before trip."

		tasks = append(tasks, domain.Task{
			Title:       "Complete " + registration.Name + " for " + destination,
			Description: description,
			Category:    domain.TaskCategoryDocumentation,
			Priority:    domain.TaskPriorityHigh,
		})
	}
	return tasks
}

// ResearchTask is emitted when the service could not answer for a destination.
func ResearchTask(destination string) domain.Task {
	return domain.Task{
		Title: "Research visa requirements for " + destination,
		Description: "Check if visa is required for " + destination + " and apply if necessary. " +
			"Visit official embassy website or government travel advisory. " +
			"Recommended: 6 weeks before trip.",
		Category: domain.TaskCategoryVisa,
		Priority: domain.TaskPriorityHigh,
	}
}

func writeDetails(builder *strings.Builder, duration, passportValidity string) {
	if duration != "" {
		builder.WriteString("Duration: " + duration + ". ")
	}
	if passportValidity != "" {
		builder.WriteString("Passport validity required: " + passportValidity + ". ")
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
