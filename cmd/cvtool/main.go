// cvtool 命令行工具：离线解析、匹配、搜索职位和渲染简历
package main

import (
	"fmt"
	"os"
)

const usage = `用法: cvtool <命令> [参数]

命令:
  parse  <file>                    提取并解析简历，输出 JSON
  match  <cv-file> <jd-file>       简历与岗位描述匹配，输出 JSON
  jobs   <query> [--location L]    在内置职位数据中搜索
  render <file> [--template T]     解析简历并按模板渲染 (executive|modern|professional|technical)
  init-config <path>               写出默认配置示例
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "parse":
		err = runParse(args)
	case "match":
		err = runMatch(args)
	case "jobs":
		err = runJobs(args)
	case "render":
		err = runRender(args)
	case "init-config":
		err = runInitConfig(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
