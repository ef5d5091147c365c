package rules

import (
	"regexp"
	"strings"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// TicketForm is the raw submission to validate before a ticket is created.
type TicketForm struct {
	Title           string
	Description     string
	Category        string
	AssetID         string
	OSVersion       string
	LabName         string
	SoftwareName    string
	RequisitionType string
}

// ValidationResult maps field names to error messages. An empty map means
// the form is valid. Validation only ever returns data.
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

const minDescriptionLength = 10

// assetIDPattern requires two dash-separated uppercase alphanumeric groups
// of at least three characters, e.g. NSU-LAP-12345 style tags.
var assetIDPattern = regexp.MustCompile(`^[A-Z0-9]{3,}-[A-Z0-9]{3,}$`)

// osVersionOptions is the fixed selection offered on software tickets.
var osVersionOptions = map[string]struct{}{
	"windows-10":     {},
	"windows-11":     {},
	"macos-monterey": {},
	"macos-ventura":  {},
	"linux-ubuntu":   {},
	"other":          {},
}

// ValidateTicketForm applies the required-field and format rules, including
// the category-conditional requirements.
func ValidateTicketForm(form TicketForm) ValidationResult {
	errors := map[string]string{}

	if strings.TrimSpace(form.Title) == "" {
		errors["title"] = "Title is required"
	}

	category := domain.TicketCategory(form.Category)
	if strings.TrimSpace(form.Category) == "" {
		errors["category"] = "Category is required"
	} else if !validCategory(category) {
		errors["category"] = "Unknown category"
	}

	description := strings.TrimSpace(form.Description)
	if description == "" {
		errors["description"] = "Description is required"
	} else if len(description) < minDescriptionLength {
		errors["description"] = "Description must be at least 10 characters long"
	}

	switch category {
	case domain.CategoryHardware:
		if strings.TrimSpace(form.AssetID) == "" {
			errors["assetId"] = "Asset ID is required for hardware issues"
		} else if !assetIDPattern.MatchString(form.AssetID) {
			errors["assetId"] = "Asset ID must look like NSU-LAP-12345"
		}
	case domain.CategorySoftware:
		if strings.TrimSpace(form.OSVersion) == "" {
			errors["osVersion"] = "OS Version is required for software issues"
		} else if _, ok := osVersionOptions[form.OSVersion]; !ok {
			errors["osVersion"] = "Unknown OS Version"
		}
	case domain.CategoryLabSoftware:
		if strings.TrimSpace(form.LabName) == "" {
			errors["labName"] = "Lab name is required for lab software issues"
		}
		if strings.TrimSpace(form.SoftwareName) == "" {
			errors["softwareName"] = "Software name is required for lab software issues"
		}
	case domain.CategoryLabRequisition:
		if strings.TrimSpace(form.RequisitionType) == "" {
			errors["requisitionType"] = "Requisition type is required"
		}
		if strings.TrimSpace(form.LabName) == "" {
			errors["labName"] = "Lab name is required for lab requisitions"
		}
	}

	return ValidationResult{Valid: len(errors) == 0, Errors: errors}
}

func validCategory(category domain.TicketCategory) bool {
	for _, c := range domain.Categories() {
		if c == category {
			return true
		}
	}
	return false
}
