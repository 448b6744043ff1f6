package routes

import (
	"net/http"
	"time"

	"clinicdesk/handlers"
	"clinicdesk/middleware"
	"clinicdesk/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterHealthRoute registers a health-check endpoint backed by the
// dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.CheckedAt.IsZero() && !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": http.StatusText(code), "dependencies": status})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterPublicRoutes registers the endpoints reachable without a token.
func RegisterPublicRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/admin/login", hb.Admin.LoginHandler)
	api.POST("/payments/webhook", hb.Payments.WebhookHandler)
}

// RegisterApplicationRoutes registers applications, comments and documents.
func RegisterApplicationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	apps := api.Group("/applications")
	{
		apps.POST("", hb.Applications.CreateApplicationHandler)
		apps.GET("", hb.Applications.ListApplicationsHandler)
		apps.GET("/:id", hb.Applications.GetApplicationHandler)
		apps.PUT("/:id", hb.Applications.UpdateApplicationHandler)
		apps.DELETE("/:id", hb.Applications.DeleteApplicationHandler)

		apps.POST("/:id/comments", hb.Applications.AddCommentHandler)
		apps.GET("/:id/comments", hb.Applications.ListCommentsHandler)

		apps.POST("/:id/documents", hb.Applications.UploadDocumentHandler)
		apps.POST("/:id/documents/links", hb.Applications.AddDocumentLinksHandler)
		apps.GET("/:id/documents", hb.Applications.ListDocumentsHandler)
		apps.DELETE("/:id/documents/:mediaId", hb.Applications.DeleteDocumentHandler)

		apps.POST("/:id/invoices", hb.Payments.CreateInvoiceHandler)
		apps.GET("/:id/payments", hb.Payments.ListPaymentsHandler)
	}
	api.PUT("/comments/:commentId", hb.Applications.UpdateCommentHandler)
	api.DELETE("/comments/:commentId", hb.Applications.DeleteCommentHandler)
	api.GET("/documents/:mediaId", hb.Applications.GetDocumentHandler)
}

// RegisterAppointmentRoutes registers the calendar and its sync endpoints.
func RegisterAppointmentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	appts := api.Group("/appointments")
	{
		appts.GET("", hb.Appointments.ListAppointmentsHandler)
		appts.GET("/all", hb.Appointments.AllAppointmentsHandler)
		appts.GET("/doctors", hb.Appointments.DoctorsHandler)
		appts.POST("/sync", hb.Appointments.SyncAppointmentHandler)
		appts.PUT("/sync/:id", hb.Appointments.SyncAppointmentHandler)
		appts.GET("/:id", hb.Appointments.GetAppointmentHandler)
		appts.DELETE("/:id", hb.Appointments.DeleteAppointmentHandler)
	}
}

func RegisterTaskRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	tasks := api.Group("/tasks")
	{
		tasks.POST("", hb.Tasks.CreateTaskHandler)
		tasks.GET("", hb.Tasks.ListTasksHandler)
		tasks.GET("/executors", hb.Tasks.ExecutorsHandler)
		tasks.GET("/doctors", hb.Tasks.DoctorNamesHandler)
		tasks.GET("/:id", hb.Tasks.GetTaskHandler)
		tasks.PUT("/:id", hb.Tasks.UpdateTaskHandler)
		tasks.PATCH("/:id", hb.Tasks.RescheduleTaskHandler)
		tasks.DELETE("/:id", hb.Tasks.DeleteTaskHandler)
	}
}

func RegisterPeopleRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	patients := api.Group("/patients")
	{
		patients.POST("", hb.Patients.CreatePatientHandler)
		patients.GET("", hb.Patients.ListPatientsHandler)
		patients.GET("/:id", hb.Patients.GetPatientHandler)
		patients.PUT("/:id", hb.Patients.UpdatePatientHandler)
		patients.DELETE("/:id", hb.Patients.DeletePatientHandler)
		patients.GET("/:id/applications", hb.Applications.PatientHistoryHandler)
		patients.GET("/:id/medical", hb.Patients.GetMedicalHandler)
		patients.PUT("/:id/medical", hb.Patients.UpdateMedicalHandler)
		patients.POST("/:id/medical/media", hb.Patients.AttachMediaHandler)
		patients.GET("/:id/medical/media", hb.Patients.ListMediaHandler)
	}

	doctors := api.Group("/doctors")
	{
		doctors.POST("", hb.Doctors.CreateDoctorHandler)
		doctors.GET("", hb.Doctors.ListDoctorsHandler)
		doctors.GET("/:id", hb.Doctors.GetDoctorHandler)
		doctors.PUT("/:id", hb.Doctors.UpdateDoctorHandler)
		doctors.DELETE("/:id", hb.Doctors.DeleteDoctorHandler)
	}
}

func RegisterPaymentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	payments := api.Group("/payments")
	{
		payments.POST("/link", hb.Payments.CreateLinkHandler)
		payments.GET("/:id", hb.Payments.GetPaymentHandler)
		payments.PATCH("/:id/status", hb.Payments.UpdateStatusHandler)
		payments.POST("/:id/send", hb.Payments.SendLinkHandler)
	}
}

func RegisterNotificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/events", hb.Events.StreamHandler)
	api.POST("/email/send", hb.Notifications.SendEmailHandler)

	wa := api.Group("/whatsapp")
	{
		wa.GET("/chats", hb.Notifications.ChatsHandler)
		wa.GET("/chats/:chatId/messages", hb.Notifications.MessagesHandler)
		wa.GET("/media/:messageId", hb.Notifications.MediaHandler)
		wa.POST("/send", hb.Notifications.SendWhatsAppHandler)
		wa.POST("/document", hb.Notifications.SendDocumentHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	adminGroup := api.Group("/admin")
	{
		adminGroup.POST("/logout", hb.Admin.LogoutHandler)
		adminGroup.POST("/reset-counters", hb.Admin.ResetCountersHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// Application numbers contain a slash, so clients percent-encode them and the
// router matches on the raw path.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, origins []string) {
	r.UseRawPath = true
	r.UnescapePathValues = true

	allowAll := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events", "/metrics"})))

	RegisterHealthRoute(r)

	api := r.Group("/api")
	RegisterPublicRoutes(api, hb)

	protected := api.Group("")
	protected.Use(middleware.JWTAuthAdminMiddleware(hb.AdminService))
	RegisterApplicationRoutes(protected, hb)
	RegisterAppointmentRoutes(protected, hb)
	RegisterTaskRoutes(protected, hb)
	RegisterPeopleRoutes(protected, hb)
	RegisterPaymentRoutes(protected, hb)
	RegisterNotificationRoutes(protected, hb)
	RegisterAdminRoutes(protected, hb)
}
