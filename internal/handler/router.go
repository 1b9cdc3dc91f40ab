package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/middleware"
	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
)

// Routes bundles every handler the HTTP surface mounts.
type Routes struct {
	Auth          *AuthHandler
	Equipment     *EquipmentHandler
	Facilities    *FacilityHandler
	Supplies      *SupplyHandler
	Borrowings    *BorrowingHandler
	Bookings      *BookingHandler
	Acquirings    *AcquiringHandler
	Notifications *NotificationHandler
	Dashboard     *DashboardHandler
	Users         *UserHandler

	AuthService *service.AuthService
}

// Register mounts the API under prefix. Catalog reads are public; everything
// that writes or reads per-user state sits behind JWT, and administrative
// surfaces additionally require the ADMIN role.
func Register(r *gin.Engine, prefix string, routes Routes) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", routes.Auth.Register)
		auth.POST("/login", routes.Auth.Login)
		auth.POST("/refresh", routes.Auth.Refresh)
	}

	api.GET("/equipments", routes.Equipment.List)
	api.GET("/equipments/categories", routes.Equipment.Categories)
	api.GET("/equipments/:id", routes.Equipment.Get)
	api.GET("/facilities", routes.Facilities.List)
	api.GET("/facilities/:id", routes.Facilities.Get)
	api.GET("/supplies", routes.Supplies.List)
	api.GET("/supplies/:id", routes.Supplies.Get)

	authed := api.Group("")
	authed.Use(middleware.JWT(routes.AuthService))
	{
		authed.POST("/auth/logout", routes.Auth.Logout)
		authed.POST("/auth/change-password", routes.Auth.ChangePassword)
		authed.GET("/auth/me", routes.Auth.Me)

		authed.GET("/equipments/export/csv", routes.Equipment.ExportCSV)
		authed.GET("/equipments/export/pdf", routes.Equipment.ExportPDF)
		authed.GET("/supplies/export/csv", routes.Supplies.ExportCSV)

		authed.POST("/borrowings", routes.Borrowings.Create)
		authed.GET("/borrowings/my-requests", routes.Borrowings.MyRequests)
		authed.DELETE("/borrowings/my-requests", routes.Borrowings.DeleteOwn)
		authed.POST("/borrowings/return", routes.Borrowings.MarkReturned)

		authed.POST("/bookings", routes.Bookings.Create)
		authed.GET("/bookings/my-requests", routes.Bookings.MyRequests)
		authed.DELETE("/bookings/my-requests", routes.Bookings.DeleteOwn)
		authed.POST("/bookings/done", routes.Bookings.MarkDone)

		authed.POST("/acquirings", routes.Acquirings.Create)
		authed.GET("/acquirings/my-requests", routes.Acquirings.MyRequests)
		authed.DELETE("/acquirings/my-requests", routes.Acquirings.DeleteOwn)

		authed.GET("/notifications", routes.Notifications.Inbox)
		authed.DELETE("/notifications", routes.Notifications.DeleteAll)
		authed.PATCH("/notifications/read-all", routes.Notifications.MarkAllRead)
		authed.PATCH("/notifications/:id/read", routes.Notifications.MarkRead)
		authed.DELETE("/notifications/:id", routes.Notifications.Delete)

		authed.GET("/dashboard/stats", routes.Dashboard.Stats)
		authed.GET("/dashboard/sidebar", routes.Dashboard.Sidebar)
		authed.GET("/dashboard/equipment/by-category", routes.Dashboard.ByCategory)
		authed.GET("/dashboard/equipment/by-status", routes.Dashboard.ByStatus)
		authed.GET("/dashboard/equipment/by-person-liable", routes.Dashboard.ByPersonLiable)
		authed.GET("/dashboard/equipment/by-facility", routes.Dashboard.ByFacility)
		authed.GET("/dashboard/equipment/availability", routes.Dashboard.Availability)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(routes.AuthService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/equipments", routes.Equipment.Create)
		admin.PUT("/equipments/:id", routes.Equipment.Update)
		admin.POST("/equipments/bulk-delete", routes.Equipment.BulkDelete)
		admin.POST("/equipments/:id/image", routes.Equipment.UploadImage)
		admin.GET("/equipment-logs", routes.Equipment.Logs)

		admin.POST("/facilities", routes.Facilities.Create)
		admin.PUT("/facilities/:id", routes.Facilities.Update)
		admin.POST("/facilities/bulk-delete", routes.Facilities.BulkDelete)
		admin.POST("/facilities/:id/image", routes.Facilities.UploadImage)
		admin.GET("/facility-logs", routes.Facilities.Logs)

		admin.POST("/supplies", routes.Supplies.Create)
		admin.PUT("/supplies/:id", routes.Supplies.Update)
		admin.POST("/supplies/bulk-delete", routes.Supplies.BulkDelete)
		admin.POST("/supplies/:id/image", routes.Supplies.UploadImage)
		admin.GET("/supply-logs", routes.Supplies.Logs)

		admin.GET("/borrowings", routes.Borrowings.ListAll)
		admin.PATCH("/borrowings/review", routes.Borrowings.Review)
		admin.POST("/borrowings/bulk-delete", routes.Borrowings.BulkDelete)
		admin.GET("/borrowings/return-claims", routes.Borrowings.ReturnClaims)
		admin.PATCH("/borrowings/return-claims/confirm", routes.Borrowings.ConfirmReturn)
		admin.PATCH("/borrowings/return-claims/reject", routes.Borrowings.RejectReturn)

		admin.GET("/bookings", routes.Bookings.ListAll)
		admin.PATCH("/bookings/review", routes.Bookings.Review)
		admin.POST("/bookings/bulk-delete", routes.Bookings.BulkDelete)
		admin.GET("/bookings/done-claims", routes.Bookings.DoneClaims)
		admin.PATCH("/bookings/done-claims/confirm", routes.Bookings.ConfirmDone)
		admin.PATCH("/bookings/done-claims/dismiss", routes.Bookings.DismissDone)

		admin.GET("/acquirings", routes.Acquirings.ListAll)
		admin.PATCH("/acquirings/review", routes.Acquirings.Review)
		admin.POST("/acquirings/bulk-delete", routes.Acquirings.BulkDelete)

		admin.GET("/users", routes.Users.List)
		admin.GET("/users/:id", routes.Users.Get)
		admin.PUT("/users/:id", routes.Users.Update)
		admin.POST("/users/bulk-delete", routes.Users.BulkDelete)

		admin.GET("/account-requests", routes.Users.AccountRequests)
		admin.PATCH("/account-requests/:id/approve", routes.Users.ApproveAccountRequest)
		admin.PATCH("/account-requests/:id/reject", routes.Users.RejectAccountRequest)
		admin.DELETE("/account-requests/:id", routes.Users.DeleteAccountRequest)

		admin.GET("/dashboard/system", routes.Dashboard.System)
	}
}
