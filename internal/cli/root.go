// Package cli 运维命令行：数据库迁移、选课对账、成就补发
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/repository"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/service"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/database"
	applogger "github.com/ahmed-moohram/elmostqbal-sub002/pkg/logger"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/mq"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
}

// ValidFormats 允许的输出格式
var ValidFormats = []string{"text", "json"}

// Env 子命令运行所需的依赖
type Env struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// Close 释放数据库连接与日志缓冲
func (e *Env) Close() {
	if sqlDB, err := e.DB.DB(); err == nil {
		sqlDB.Close()
	}
	_ = e.Logger.Sync()
}

// EnvLoader 按全局参数构建运行环境；测试中替换为 SQLite
type EnvLoader func(opts *RootOptions) (*Env, error)

// NewRootCommand 创建 coursectl 根命令
func NewRootCommand(load EnvLoader) *cobra.Command {
	opts := &RootOptions{}
	if load == nil {
		load = LoadEnv
	}

	cmd := &cobra.Command{
		Use:           "coursectl",
		Short:         "课程开通服务运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("无效的输出格式 %q，可选值 %v", opts.Format, ValidFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "配置文件路径")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "输出格式 (text|json)")

	cmd.AddCommand(newMigrateCommand(opts, load))
	cmd.AddCommand(newReconcileCommand(opts, load))
	cmd.AddCommand(newRegrantCommand(opts, load))

	return cmd
}

// LoadEnv 连接真实 PostgreSQL
func LoadEnv(opts *RootOptions) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, DB: db, Logger: logger}, nil
}

// newReconcileService 运维命令不对外发布通知事件
func newReconcileService(env *Env) service.ReconcileService {
	repo := repository.NewRepository(env.DB)
	cfg := *env.Config
	cfg.Redemption.AsyncAchievements = false
	return service.NewService(&cfg, repo, mq.NewNopPublisher(), env.Logger).Reconcile
}

// printResult 按输出格式打印统计结果
func printResult(w io.Writer, format, title string, r *service.ReconcileResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Fprintf(w, "%s: 扫描 %d，修复 %d，失败 %d，新授予成就 %d\n",
		title, r.Scanned, r.Repaired, r.Failed, r.Granted)
	return err
}
