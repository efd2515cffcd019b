package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the ADMIN role
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Auth - Public
	"Register": SecurityPublic,
	"Login":    SecurityPublic,

	// Profile - Access Protected
	"GetMe":      SecurityAccess,
	"UpdateMe":   SecurityAccess,
	"ListMyJobs": SecurityAccess,

	// Events
	"ListEvents":         SecurityAccess,
	"GetEvent":           SecurityAccess,
	"CreateEvent":        SecurityAdmin,
	"UpdateEvent":        SecurityAdmin,
	"SetEventStatus":     SecurityAdmin,
	"AdvanceEventStatus": SecurityAdmin,

	// Applications
	"SubmitApplication":    SecurityAccess,
	"ListApplications":     SecurityAccess,
	"SetApplicationStatus": SecurityAdmin,
	"CancelApplication":    SecurityAccess,

	// Evaluations
	"EvaluateStaff":     SecurityAdmin,
	"UpdatePerformance": SecurityAdmin,
	"ListEvaluations":   SecurityAccess,

	// Users - Admin
	"ListUsers":  SecurityAdmin,
	"DeleteUser": SecurityAdmin,

	// Notifications - Access Protected
	"ListNotifications":    SecurityAccess,
	"MarkNotificationRead": SecurityAccess,

	// Reports - Admin
	"ReportSummary": SecurityAdmin,
	"ReportRanking": SecurityAdmin,

	"SyncStatus": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
