package model

import "time"

// CollectionLog 采集运行台账：每次采集器调用写一行，成功失败都要落库
type CollectionLog struct {
	ID            uint64        `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	RunUUID       string        `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:本次运行全局唯一ID" json:"run_uuid"`
	Source        ProjectSource `gorm:"column:source;type:varchar(32);index;not null;comment:数据来源" json:"source"`
	CollectorName string        `gorm:"column:collector_name;type:varchar(100);not null;comment:采集器名称" json:"collector_name"`

	StartedAt  time.Time  `gorm:"column:started_at;type:timestamp;comment:开始时间" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at;type:timestamp;comment:结束时间" json:"finished_at"`

	ProjectsFound   int `gorm:"column:projects_found;type:int;default:0;comment:发现项目数" json:"projects_found"`
	ProjectsNew     int `gorm:"column:projects_new;type:int;default:0;comment:新增项目数" json:"projects_new"`
	ProjectsUpdated int `gorm:"column:projects_updated;type:int;default:0;comment:更新项目数" json:"projects_updated"`

	Success      bool    `gorm:"column:success;type:boolean;default:false;comment:是否成功" json:"success"`
	ErrorMessage *string `gorm:"column:error_message;type:text;comment:失败原因" json:"error_message"`
}

func (CollectionLog) TableName() string { return "collection_logs" }
