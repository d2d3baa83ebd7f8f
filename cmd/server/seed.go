package main

import (
	"fmt"

	"modulyn/internal/database"
	"modulyn/internal/models"
	"modulyn/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认组织
	if err := createDefaultOrganization(db); err != nil {
		return fmt.Errorf("创建默认组织失败: %v", err)
	}

	// 2. 创建平台管理员用户
	if err := createPlatformAdmin(db); err != nil {
		return fmt.Errorf("创建平台管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultOrganization 创建默认组织
func createDefaultOrganization(db *gorm.DB) error {
	var count int64
	db.Model(&models.Organization{}).Where("code = ?", "default").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认组织已存在，跳过创建")
		return nil
	}

	org := &models.Organization{
		Name:   "默认组织",
		Code:   "default",
		Type:   models.OrgTypeGeneral,
		Plan:   models.OrgPlanEnterprise,
		Status: models.OrgStatusActive,
	}

	if err := db.Create(org).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("默认组织创建成功")
	return nil
}

// createPlatformAdmin 创建平台管理员用户
func createPlatformAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("平台管理员已存在，跳过创建")
		return nil
	}

	var org models.Organization
	if err := db.Where("code = ?", "default").First(&org).Error; err != nil {
		return err
	}

	admin := &models.User{
		Username:        "admin",
		Email:           "admin@modulyn.local",
		Name:            "平台管理员",
		Status:          models.UserStatusActive,
		IsPlatformAdmin: true,
		IsOrgAdmin:      true,
		OrganizationID:  &org.ID,
	}
	if err := admin.SetPassword("Admin@123"); err != nil {
		return err
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Warn("平台管理员创建成功（admin/Admin@123），请立即修改默认密码")
	return nil
}
