package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&ProcessDefinition{},
		&Product{},

		// 生产
		&ProductionLot{},
		&LotLink{},

		// 检查
		&CrimpInspection{},

		// 出货
		&BundleLot{},
		&BundleItem{},

		// 发号
		&SequenceCounter{},
	)
}

// SeedProcesses 写入内置工序表（已存在则跳过）
func SeedProcesses(db *gorm.DB) error {
	for _, p := range ProcessSeed() {
		var count int64
		if err := db.Model(&ProcessDefinition{}).Where("code = ?", p.Code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&p).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
