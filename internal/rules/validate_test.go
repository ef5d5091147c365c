package rules

import "testing"

func validForm() TicketForm {
	return TicketForm{
		Title:       "Projector not working",
		Description: "The projector in NAC 991 does not power on.",
		Category:    "hardware",
		AssetID:     "NSU-LAP-12345",
	}
}

func TestValidateTicketForm(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*TicketForm)
		wantField string
	}{
		{"complete hardware form passes", func(f *TicketForm) {}, ""},
		{"missing title", func(f *TicketForm) { f.Title = "" }, "title"},
		{"whitespace title", func(f *TicketForm) { f.Title = "   " }, "title"},
		{"missing category", func(f *TicketForm) { f.Category = "" }, "category"},
		{"unknown category", func(f *TicketForm) { f.Category = "printer" }, "category"},
		{"missing description", func(f *TicketForm) { f.Description = "" }, "description"},
		{"short description", func(f *TicketForm) { f.Description = "too short" }, "description"},
		{"hardware requires asset id", func(f *TicketForm) { f.AssetID = "" }, "assetId"},
		{"asset id pattern rejects bare number", func(f *TicketForm) { f.AssetID = "12345" }, "assetId"},
		{"asset id pattern rejects lowercase", func(f *TicketForm) { f.AssetID = "nsu-lap-12345" }, "assetId"},
		{"asset id pattern rejects short groups", func(f *TicketForm) { f.AssetID = "NS-LAP" }, "assetId"},
		{
			"software requires os version",
			func(f *TicketForm) {
				f.Category = "software"
				f.AssetID = ""
				f.OSVersion = ""
			},
			"osVersion",
		},
		{
			"software rejects unknown os version",
			func(f *TicketForm) {
				f.Category = "software"
				f.AssetID = ""
				f.OSVersion = "windows-xp"
			},
			"osVersion",
		},
		{
			"lab software requires lab name",
			func(f *TicketForm) {
				f.Category = "lab_software"
				f.AssetID = ""
				f.SoftwareName = "MATLAB"
			},
			"labName",
		},
		{
			"lab software requires software name",
			func(f *TicketForm) {
				f.Category = "lab_software"
				f.AssetID = ""
				f.LabName = "CSE Lab 2"
			},
			"softwareName",
		},
		{
			"lab requisition requires requisition type",
			func(f *TicketForm) {
				f.Category = "lab_requisition"
				f.AssetID = ""
				f.LabName = "CSE Lab 2"
			},
			"requisitionType",
		},
		{
			"lab requisition requires lab name",
			func(f *TicketForm) {
				f.Category = "lab_requisition"
				f.AssetID = ""
				f.RequisitionType = "equipment"
			},
			"labName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			result := ValidateTicketForm(form)

			if tt.wantField == "" {
				if !result.Valid {
					t.Fatalf("expected valid form, got errors %v", result.Errors)
				}
				if len(result.Errors) != 0 {
					t.Fatalf("valid form carries errors %v", result.Errors)
				}
				return
			}

			if result.Valid {
				t.Fatalf("expected invalid form, got valid")
			}
			if _, ok := result.Errors[tt.wantField]; !ok {
				t.Errorf("missing error for %q, got %v", tt.wantField, result.Errors)
			}
		})
	}
}

func TestValidateTicketFormDistinctDescriptionMessages(t *testing.T) {
	missing := ValidateTicketForm(TicketForm{Title: "x", Category: "other"})
	short := ValidateTicketForm(TicketForm{Title: "x", Category: "other", Description: "short"})

	if missing.Errors["description"] == short.Errors["description"] {
		t.Errorf("missing and too-short descriptions share message %q", missing.Errors["description"])
	}
}

func TestValidateTicketFormRoundTrip(t *testing.T) {
	// A form satisfying every rule for its category yields Valid with an
	// empty error map.
	forms := []TicketForm{
		{Title: "t", Description: "long enough text", Category: "software", OSVersion: "windows-11"},
		{Title: "t", Description: "long enough text", Category: "lab_software", LabName: "CSE Lab 2", SoftwareName: "MATLAB"},
		{Title: "t", Description: "long enough text", Category: "lab_requisition", LabName: "CSE Lab 2", RequisitionType: "new_software"},
		{Title: "t", Description: "long enough text", Category: "network"},
		{Title: "t", Description: "long enough text", Category: "other"},
	}
	for _, form := range forms {
		result := ValidateTicketForm(form)
		if !result.Valid || len(result.Errors) != 0 {
			t.Errorf("category %s: valid = %v, errors = %v", form.Category, result.Valid, result.Errors)
		}
	}
}
