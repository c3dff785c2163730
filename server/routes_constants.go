package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Account Routes
	RouteSignIn      = "/signin"
	RouteSignUp      = "/signup"
	RouteVerifyEmail = "/verify-email"
	RouteLogout      = "/logout"

	// Dashboard Routes (require an access-token cookie)
	RouteDashboard              = "/dashboard"
	RouteDashboardAPIKeys       = "/dashboard/api-keys"
	RouteDashboardAPIKeyDelete  = "/dashboard/api-keys/{identifier}/delete"
	RouteDashboardProfile       = "/dashboard/profile"
	RouteDashboardAccountDelete = "/dashboard/account/delete"
	RouteUsage                  = "/usage"

	// Documentation Routes
	RouteDocs       = "/docs"
	RoutePlayground = "/api/playground/{service}"

	RouteHealth = "/health"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
