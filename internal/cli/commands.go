package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/database"
)

// ── migrate ──

func newMigrateCommand(opts *RootOptions, load EnvLoader) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Long:  "默认迁移到最新版本；指定 --down N 时回滚 N 个版本。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if down < 0 {
				return fmt.Errorf("--down 不能为负数")
			}
			env, err := load(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			sqlDB, err := env.DB.DB()
			if err != nil {
				return err
			}
			if down > 0 {
				return database.RollbackMigrations(sqlDB, down, env.Logger)
			}
			return database.RunMigrations(sqlDB, env.Logger)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "回滚的版本数")
	return cmd
}

// ── reconcile ──

func newReconcileCommand(opts *RootOptions, load EnvLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "补写旧版选课表",
		Long:  "扫描新版选课表已激活、旧版选课表缺失或未激活的记录，逐条补写。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit 必须大于 0")
			}
			env, err := load(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := newReconcileService(env).SyncLegacy(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, "旧版选课表对账", result)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 500, "单次最多处理的记录数")
	return cmd
}

// ── regrant ──

func newRegrantCommand(opts *RootOptions, load EnvLoader) *cobra.Command {
	var courseID string

	cmd := &cobra.Command{
		Use:   "regrant",
		Short: "重新评估课程成就",
		Long:  "对课程下每个有效选课重新执行成就检查，补发规则调整后新满足的成就。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := load(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := newReconcileService(env).RegrantCourse(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Format, "成就补发", result)
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "课程 ID")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
