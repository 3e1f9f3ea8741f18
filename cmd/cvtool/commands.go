package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/matching"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/processor"
	"cv-agent-go/internal/ratelimit"
	"cv-agent-go/internal/templates"
	"cv-agent-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/pflag"
)

const commandTimeout = 5 * time.Minute

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// extractFile 提取文件中的文本和超链接
func extractFile(ctx context.Context, path string) (string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("读取文件失败: %w", err)
	}
	extractor, err := parser.NewDocumentExtractor(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("创建文档提取器失败: %w", err)
	}
	text, links := extractor.Extract(ctx, filepath.Base(path), data)
	if strings.TrimSpace(text) == "" {
		return "", nil, processor.ErrExtractionFailed
	}
	return text, links, nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func quietLogs(verbose bool) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	_, _, _ = logger.Init(logger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05"})
}

func runParse(args []string) error {
	fs := newFlagSet("parse")
	verbose := fs.BoolP("verbose", "v", false, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("parse 需要一个文件参数")
	}
	quietLogs(*verbose)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	text, links, err := extractFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(parser.ParseResume(text, links))
}

func runRender(args []string) error {
	fs := newFlagSet("render")
	templateID := fs.StringP("template", "t", templates.Executive, "模板: "+strings.Join(templates.IDs(), ", "))
	exclude := fs.StringSlice("exclude", nil, "不输出的章节，例如 projects,languages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("render 需要一个文件参数")
	}
	quietLogs(false)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	text, links, err := extractFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	profile := parser.ParseResume(text, links)
	fmt.Println(templates.Render(*templateID, templates.FromProfile(profile, "", nil),
		templates.Customizations{ExcludedSections: *exclude}))
	return nil
}

func runJobs(args []string) error {
	fs := newFlagSet("jobs")
	location := fs.StringP("location", "l", "", "地点过滤")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("jobs 需要搜索关键词")
	}
	jobs, err := processor.NewMockJobSource().Search(context.Background(), strings.Join(fs.Args(), " "), *location)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Jobs []types.Job `json:"jobs"`
	}{jobs})
}

func runInitConfig(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("init-config 需要输出文件路径")
	}
	if err := config.CreateSampleConfig(args[0]); err != nil {
		return err
	}
	fmt.Printf("示例配置已写入 %s\n", args[0])
	return nil
}

func runMatch(args []string) error {
	fs := newFlagSet("match")
	configPath := fs.StringP("config", "c", "", "配置文件路径，用于读取 LLM 配置")
	verbose := fs.BoolP("verbose", "v", false, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("match 需要简历文件和岗位描述文件两个参数")
	}
	quietLogs(*verbose)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	cvText, _, err := extractFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	jd, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("读取岗位描述失败: %w", err)
	}

	var chatModel model.ToolCallingChatModel
	if cfg.LLM.APIKey != "" {
		m, err := parser.NewOpenAIChatModel(cfg.LLM)
		if err != nil {
			return err
		}
		chatModel = ratelimit.NewLLMWithRateLimit(m, cfg.LLM.Model, cfg.LLM.QPMLimits, cfg.LLM.DefaultQPM)
	} else {
		fmt.Fprintln(os.Stderr, "未配置 LLM_API_KEY，语义增强阶段将使用静态降级结果")
	}
	adapter := enrichment.NewAdapter(chatModel,
		enrichment.WithCallTimeout(cfg.LLMTimeout()),
		enrichment.WithRetryPolicy(config.GetDuration(cfg.LLM.RetryWait, 2*time.Second), cfg.LLM.MaxRetries))
	pipeline := processor.NewMatchPipeline(adapter,
		processor.WithWeights(matching.Weights{Tech: cfg.Matching.TechWeight, Soft: cfg.Matching.SoftWeight}))

	out, err := pipeline.MatchCVToJob(ctx, cvText, string(jd))
	if err != nil {
		return err
	}
	return printJSON(out)
}
