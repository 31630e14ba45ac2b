package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"respondent": {
		"form:respond",
		"response:view-own",
	},
	"owner": {
		"form:create",
		"form:update-own",
		"form:delete-own",
		"form:view-own",
		"form:publish-own",
		"question:manage-own",
		"response:view-own-form",
		"form:respond",
		"stats:view-own",
		"ai:generate",
	},
	"admin": {
		"*", // everything
	},
}
