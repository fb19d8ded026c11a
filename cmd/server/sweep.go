package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/service"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sweep <job>",
		Short:     "Run a scheduled job once: " + strings.Join(service.SweepJobs, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: service.SweepJobs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, config.GetConfig())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.sweeper.Run(ctx, args[0])
			if err != nil {
				return err
			}
			// 等待本次任务触发的通知发送完成
			a.orchestrator.Wait()
			if !result.Success {
				return fmt.Errorf("sweep %s failed: %s", result.Job, result.Error)
			}
			color.Green("%s 完成: 处理 %d 条", result.Job, result.Count)
			return nil
		},
	}
}
