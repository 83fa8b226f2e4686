package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "true-ai-builders",
	Short: "AI创业者社区的新闻摘要生成工具",
	Long: `true-ai-builders是一个基于Go语言的控制台程序，用于获取指定主题的近期新闻，
调用OpenAI API分两步生成一段新闻摘要和2-4个讨论问题，
最终输出Markdown格式的摘要报告，供邮件或聊天桥接进程投递。`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// 设置信号处理
	setupSignalHandler()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	// 程序退出前同步日志
	defer logger.Sync()
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局标志
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认为 ./config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// 使用指定的配置文件
		viper.SetConfigFile(cfgFile)
	} else {
		// 在当前目录中查找配置文件
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// 读取配置文件
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("使用配置文件:", viper.ConfigFileUsed())

		// 初始化日志系统
		initLogger()
	} else {
		fmt.Printf("无法读取配置文件: %v\n", err)
	}

	// 读取环境变量
	viper.AutomaticEnv()
	// API密钥允许通过环境变量提供
	viper.BindEnv("gnews.api_key", "GNEWS_API_KEY")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")

	// 缺少密钥不阻止启动，对应的下游调用会失败
	if viper.GetString("gnews.api_key") == "" {
		logger.Warn("未配置GNEWS_API_KEY，新闻获取将会失败")
	}
	if viper.GetString("openai.api_key") == "" {
		logger.Warn("未配置OPENAI_API_KEY，摘要生成将会失败")
	}
}

// initLogger 初始化日志系统
func initLogger() {
	// 从配置文件中读取日志配置
	logConfig := logger.Config{
		Level:      viper.GetString("logger.level"),
		Console:    viper.GetBool("logger.console"),
		FilePath:   viper.GetString("logger.file_path"),
		MaxSize:    viper.GetInt("logger.max_size"),
		MaxBackups: viper.GetInt("logger.max_backups"),
		MaxAge:     viper.GetInt("logger.max_age"),
		Compress:   viper.GetBool("logger.compress"),
	}

	// 初始化日志系统
	if err := logger.Init(logConfig); err != nil {
		fmt.Printf("初始化日志系统失败: %v\n", err)
	}
}

// setupSignalHandler 设置信号处理函数
func setupSignalHandler() {
	c := make(chan os.Signal, 1)
	// 监听 SIGINT (Ctrl+C) 和 SIGTERM 信号
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\n接收到中断信号，正在优雅退出...")
		// 执行清理工作
		logger.Info("程序接收到中断信号，正在清理资源")
		// 同步日志
		logger.Sync()
		// 退出程序
		os.Exit(0)
	}()
}
