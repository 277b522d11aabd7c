package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/dto"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/internal/repository"
	"gestion-cours/backend/internal/service"
	"gestion-cours/backend/pkg/database"
	applogger "gestion-cours/backend/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "gc-admin",
	Short:         "课程报名系统运维命令行",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("GC_CONFIG"), "配置文件路径")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createSuperuserCmd())
	rootCmd.AddCommand(createUserCmd())
	rootCmd.AddCommand(grantPermissionCmd())
	rootCmd.AddCommand(coursesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env 命令执行期间共享的依赖
type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
}

func withEnv(fn func(e *env) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}()

	return fn(&env{cfg: cfg, db: db, logger: logger})
}

func (e *env) services() *service.Service {
	return service.NewService(service.Deps{
		Config: e.cfg,
		Repo:   repository.NewRepository(e.db),
		Logger: e.logger,
	})
}

// ── migrate ──

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(e *env) error {
				if err := database.RunMigrations(e.db, e.cfg.Database.Driver, e.logger); err != nil {
					return err
				}
				fmt.Println("迁移完成")
				return nil
			})
		},
	}
}

// ── create-superuser ──

func createSuperuserCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "创建超级管理员（已存在时跳过）",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(e *env) error {
				user, created, err := e.services().Admin.CreateSuperuser(cmd.Context(), username, email, password)
				if err != nil {
					return err
				}
				if created {
					fmt.Printf("超级管理员 %s 已创建\n", user.Username)
				} else {
					fmt.Printf("超级管理员 %s 已存在\n", user.Username)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "用户名")
	cmd.Flags().StringVar(&email, "email", "admin@example.com", "邮箱")
	cmd.Flags().StringVar(&password, "password", "admin123", "密码")
	return cmd
}

// ── create-user ──

func createUserCmd() *cobra.Command {
	var req dto.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "创建管理员或讲师账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Role != model.RoleAdmin && req.Role != model.RoleInstructor {
				return fmt.Errorf("--role 仅支持 admin 或 instructor")
			}
			return withEnv(func(e *env) error {
				user, err := e.services().Admin.CreateUser(cmd.Context(), &req)
				if err != nil {
					return err
				}
				fmt.Printf("用户 %s（%s）已创建\n", user.Username, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "用户名")
	cmd.Flags().StringVar(&req.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "密码")
	cmd.Flags().StringVar(&req.Role, "role", model.RoleInstructor, "角色 (admin, instructor)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ── grant-permission ──

func grantPermissionCmd() *cobra.Command {
	var username, codename string
	cmd := &cobra.Command{
		Use:   "grant-permission",
		Short: "授予用户权限 (can_publish_course, can_view_statistics)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(e *env) error {
				user, err := e.services().Admin.GrantPermission(cmd.Context(), username, codename)
				if err != nil {
					return err
				}
				fmt.Printf("%s 当前权限: %v\n", user.Username, user.Permissions)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "用户名")
	cmd.Flags().StringVar(&codename, "codename", "", "权限代码")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("codename")
	return cmd
}

// ── courses ──

func coursesCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "列出课程",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(func(e *env) error {
				courses, err := listAllCourses(cmd.Context(), e.services().Course, status)
				if err != nil {
					return err
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Price", "Instructor"})
				for _, c := range courses {
					instructor := ""
					if c.Instructor != nil {
						instructor = c.Instructor.FullName
					}
					tw.AppendRow(table.Row{c.ID, c.Title, c.Status, c.Price, instructor})
				}
				tw.AppendFooter(table.Row{"", "", "", "Total", len(courses)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "按状态筛选 (draft, published, archived)")
	return cmd
}

func listAllCourses(ctx context.Context, svc service.CourseService, status string) ([]dto.CourseResponse, error) {
	req := &dto.CourseListRequest{Status: status}
	req.PageSize = 100

	var all []dto.CourseResponse
	for page := 1; ; page++ {
		req.Page = page
		list, total, err := svc.List(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
		if len(list) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}
