package router

import (
	"modulyn/internal/database"
	"modulyn/internal/handlers"
	"modulyn/internal/middleware"
	"modulyn/internal/services"
	"modulyn/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 全局中间件
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	db := database.GetDB()
	redisQueue := database.GetRedisQueue()

	// 服务
	userService := services.NewUserService(db)
	orgService := services.NewOrganizationService(db)
	contactService := services.NewContactService(db)
	leadService := services.NewLeadService(db)
	dealService := services.NewDealService(db)
	propertyService := services.NewPropertyService(db)
	taskService := services.NewTaskService(db)
	memberService := services.NewMemberService(db)
	eventService := services.NewEventService(db)
	emailService := services.NewEmailService(db)
	notificationService := services.NewNotificationService(db)
	dashboardService := services.NewDashboardService(db)

	// 实时变更发布和投递队列
	contactService.SetPublisher(redisQueue)
	leadService.SetPublisher(redisQueue)
	dealService.SetPublisher(redisQueue)
	propertyService.SetPublisher(redisQueue)
	taskService.SetPublisher(redisQueue)
	memberService.SetPublisher(redisQueue)
	eventService.SetPublisher(redisQueue)
	emailService.SetPublisher(redisQueue)
	notificationService.SetPublisher(redisQueue)
	emailService.SetQueue(redisQueue)

	// 处理器
	authHandler := handlers.NewAuthHandler(userService, orgService)
	orgHandler := handlers.NewOrganizationHandler(orgService, userService)
	contactHandler := handlers.NewContactHandler(contactService)
	leadHandler := handlers.NewLeadHandler(leadService)
	dealHandler := handlers.NewDealHandler(dealService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	taskHandler := handlers.NewTaskHandler(taskService)
	memberHandler := handlers.NewMemberHandler(memberService)
	eventHandler := handlers.NewEventHandler(eventService)
	emailHandler := handlers.NewEmailHandler(emailService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	wsHandler := handlers.NewWebSocketHandler()

	authMiddleware := middleware.NewAuthMiddleware()

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	// WebSocket实时订阅（token从查询参数认证）
	router.GET("/ws/subscribe/:table", wsHandler.Subscribe)

	v1 := router.Group("/api/v1")

	// 公开接口
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// 登录后接口（不要求组织上下文）
	authed := v1.Group("")
	authed.Use(authMiddleware.RequireLogin())
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.PUT("/auth/profile", authHandler.UpdateProfile)
		authed.POST("/auth/change-password", authHandler.ChangePassword)
		authed.POST("/auth/switch-org", authHandler.SwitchOrg)

		// 创建组织（注册向导）
		authed.POST("/organizations", orgHandler.Create)
	}

	// 平台管理接口
	platform := v1.Group("/platform")
	platform.Use(authMiddleware.RequireLogin(), authMiddleware.RequirePlatformAdmin())
	{
		platform.GET("/organizations", orgHandler.List)
		platform.GET("/organizations/stats", orgHandler.GetStats)
		platform.GET("/organizations/active", orgHandler.ListActive)
		platform.PUT("/organizations/:id/activate", orgHandler.Activate)
		platform.PUT("/organizations/:id/deactivate", orgHandler.Deactivate)
		platform.DELETE("/organizations/:id", orgHandler.Delete)
	}

	// 组织内接口（要求组织上下文）
	org := v1.Group("")
	org.Use(authMiddleware.RequireLogin(), authMiddleware.RequireOrgContext())
	{
		// 组织
		org.GET("/organizations/my", orgHandler.GetMy)
		org.GET("/organizations/my/users", orgHandler.ListUsers)

		// 联系人
		contacts := org.Group("/contacts")
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("", contactHandler.List)
			contacts.GET("/by-type/:type", contactHandler.GetByType)
			contacts.GET("/:id", contactHandler.GetByID)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.PUT("/:id/assign", contactHandler.Assign)
			contacts.DELETE("/:id", contactHandler.Delete)
		}

		// 线索
		leads := org.Group("/leads")
		{
			leads.POST("", leadHandler.Create)
			leads.GET("", leadHandler.List)
			leads.GET("/active", leadHandler.GetActive)
			leads.GET("/:id", leadHandler.GetByID)
			leads.PUT("/:id", leadHandler.Update)
			leads.PUT("/:id/status", leadHandler.UpdateStatus)
			leads.POST("/:id/convert", leadHandler.Convert)
			leads.DELETE("/:id", leadHandler.Delete)
		}

		// 交易
		deals := org.Group("/deals")
		{
			deals.POST("", dealHandler.Create)
			deals.GET("", dealHandler.List)
			deals.GET("/by-value", dealHandler.GetByValueRange)
			deals.GET("/by-stage/:stage", dealHandler.GetByStage)
			deals.GET("/:id", dealHandler.GetByID)
			deals.PUT("/:id", dealHandler.Update)
			deals.PUT("/:id/stage", dealHandler.UpdateStage)
			deals.DELETE("/:id", dealHandler.Delete)
		}

		// 房源
		properties := org.Group("/properties")
		{
			properties.POST("", propertyHandler.Create)
			properties.GET("", propertyHandler.List)
			properties.GET("/active", propertyHandler.GetActive)
			properties.GET("/:id", propertyHandler.GetByID)
			properties.PUT("/:id", propertyHandler.Update)
			properties.PUT("/:id/status", propertyHandler.UpdateStatus)
			properties.DELETE("/:id", propertyHandler.Delete)
		}

		// 任务
		tasks := org.Group("/tasks")
		{
			tasks.POST("", taskHandler.Create)
			tasks.GET("", taskHandler.List)
			tasks.GET("/due-this-week", taskHandler.GetDueThisWeek)
			tasks.GET("/overdue", taskHandler.GetOverdue)
			tasks.GET("/:id", taskHandler.GetByID)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.PUT("/:id/complete", taskHandler.Complete)
			tasks.DELETE("/:id", taskHandler.Delete)
		}

		// 会员
		members := org.Group("/members")
		{
			members.POST("", memberHandler.Create)
			members.GET("", memberHandler.List)
			members.GET("/by-user/:userId", memberHandler.GetByUser)
			members.GET("/:id", memberHandler.GetByID)
			members.PUT("/:id/membership-type", memberHandler.UpdateMembershipType)
			members.PUT("/:id/subscription", memberHandler.UpdateSubscriptionStatus)
			members.POST("/:id/renew", memberHandler.Renew)
			members.POST("/:id/sets", memberHandler.AddToSet)
			members.DELETE("/:id/sets", memberHandler.RemoveFromSet)
			members.DELETE("/:id", memberHandler.Delete)
		}

		// 活动
		events := org.Group("/events")
		{
			events.POST("", eventHandler.Create)
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.GetByID)
			events.PUT("/:id", eventHandler.Update)
			events.PUT("/:id/status", eventHandler.UpdateStatus)
			events.POST("/:id/register", eventHandler.Register)
			events.DELETE("/:id/register", eventHandler.CancelRegistration)
			events.POST("/:id/confirm", eventHandler.ConfirmRegistration)
			events.POST("/:id/checkin", eventHandler.CheckIn)
			events.GET("/:id/registrations", eventHandler.ListRegistrations)
			events.DELETE("/:id", eventHandler.Delete)
		}

		// 邮件模板
		templates := org.Group("/email-templates")
		{
			templates.POST("", emailHandler.CreateTemplate)
			templates.GET("", emailHandler.ListTemplates)
			templates.GET("/:id", emailHandler.GetTemplate)
			templates.PUT("/:id", emailHandler.UpdateTemplate)
			templates.DELETE("/:id", emailHandler.DeleteTemplate)
		}

		// 营销活动
		campaigns := org.Group("/campaigns")
		{
			campaigns.POST("", emailHandler.CreateCampaign)
			campaigns.GET("", emailHandler.ListCampaigns)
			campaigns.GET("/queue-status", emailHandler.QueueStatus)
			campaigns.GET("/:id", emailHandler.GetCampaign)
			campaigns.POST("/:id/schedule", emailHandler.ScheduleCampaign)
			campaigns.POST("/:id/send", emailHandler.SendCampaign)
			campaigns.POST("/:id/cancel", emailHandler.CancelCampaign)
			campaigns.POST("/:id/metrics", emailHandler.RecordMetrics)
			campaigns.POST("/:id/mark-sent", emailHandler.MarkCampaignSent)
		}

		// 通知
		notifications := org.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		// 仪表盘
		dashboard := org.Group("/dashboard")
		{
			dashboard.GET("/crm", dashboardHandler.GetCRMKPIs)
			dashboard.GET("/trade", dashboardHandler.GetTradeKPIs)
		}
	}

	// 组织管理员接口
	orgAdmin := v1.Group("")
	orgAdmin.Use(authMiddleware.RequireLogin(), authMiddleware.RequireOrgContext(), authMiddleware.RequireOrgAdmin())
	{
		orgAdmin.PUT("/organizations/my", orgHandler.Update)
		orgAdmin.PUT("/organizations/my/users/:id/admin", orgHandler.SetOrgAdmin)
		orgAdmin.DELETE("/organizations/my/users/:id", orgHandler.RemoveUser)
		orgAdmin.POST("/notifications/announce", notificationHandler.Announce)
	}

	return router
}
