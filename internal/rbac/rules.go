package rbac

// Default policy: learners drive their own training, admins run the
// cohort dashboard and user management.
var RolePermissions = map[string][]string{
	"learner": {
		"session:start",
		"session:answer",
		"session:submit",
		"session:view-own",
		"progress:view-own",
		"module:complete",
		"cpd:view",
		"cpd:record",
		"certificate:issue",
		"entitlement:view",
		"assistant:ask",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
