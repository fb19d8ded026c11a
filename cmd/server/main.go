package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	klog.InitFlags(nil)
	defer klog.Flush()

	rootCmd := &cobra.Command{
		Use:   "hrms",
		Short: "HRMS contract and onboarding document service",
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		sweepCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
