package rules

import "github.com/nsu-it/helpdesk-service/internal/domain"

// Submitter is the slice of a user the priority table needs.
type Submitter struct {
	Role domain.UserRole
	Type domain.UserType
}

type priorityRule struct {
	name    string
	matches func(Submitter, domain.TicketCategory, bool) bool
	result  domain.TicketPriority
}

// priorityRules is evaluated in order; the first matching rule wins. Keeping
// the precedence in a flat table makes it testable on its own instead of
// being buried in nested branching.
var priorityRules = []priorityRule{
	{
		name: "lab_related",
		matches: func(_ Submitter, _ domain.TicketCategory, labRelated bool) bool {
			return labRelated
		},
		result: domain.TicketPriorityHigh,
	},
	{
		name: "faculty_leadership",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleFaculty &&
				(s.Type == domain.TypeDean || s.Type == domain.TypeDepartmentChair)
		},
		result: domain.TicketPriorityCritical,
	},
	{
		name: "faculty_professor",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleFaculty && s.Type == domain.TypeProfessor
		},
		result: domain.TicketPriorityHigh,
	},
	{
		name: "faculty_other",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleFaculty
		},
		result: domain.TicketPriorityMedium,
	},
	{
		name: "lab_instructor",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleLabInstructor
		},
		result: domain.TicketPriorityHigh,
	},
	{
		name: "administrative_staff",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleStaff && s.Type == domain.TypeAdministrativeStaff
		},
		result: domain.TicketPriorityMedium,
	},
	{
		name: "staff_other",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleStaff
		},
		result: domain.TicketPriorityLow,
	},
	{
		name: "fresher_student",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleStudent && s.Type == domain.TypeFresherStudent
		},
		result: domain.TicketPriorityMedium,
	},
	{
		name: "student_other",
		matches: func(s Submitter, _ domain.TicketCategory, _ bool) bool {
			return s.Role == domain.RoleStudent
		},
		result: domain.TicketPriorityLow,
	},
}

// ResolvePriority picks the default priority for a new ticket from the
// submitter's role and sub-type. It is total: unknown roles fall back to
// medium, never an error.
func ResolvePriority(submitter Submitter, category domain.TicketCategory, labRelated bool) domain.TicketPriority {
	for _, rule := range priorityRules {
		if rule.matches(submitter, category, labRelated) {
			return rule.result
		}
	}
	return domain.TicketPriorityMedium
}

// NormalizePriority maps unknown priority values to medium.
func NormalizePriority(p domain.TicketPriority) domain.TicketPriority {
	switch p {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium,
		domain.TicketPriorityHigh, domain.TicketPriorityCritical:
		return p
	}
	return domain.TicketPriorityMedium
}
