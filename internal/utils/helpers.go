package utils

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var appIDLine = regexp.MustCompile(`^\d+$`)

// ReadSeedsFromFile 从文件中读取种子应用ID,每行一个
// 跳过空行和#注释,重复的ID只保留第一次出现
func ReadSeedsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开种子文件失败: %w", err)
	}
	defer file.Close()

	seeds := make([]string, 0)
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !appIDLine.MatchString(line) {
			Warnf("跳过无效应用ID (行 %d): %s", lineNum, line)
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		seeds = append(seeds, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取种子文件失败: %w", err)
	}

	if len(seeds) == 0 {
		return nil, fmt.Errorf("种子文件中没有有效的应用ID")
	}

	Infof("从文件加载了 %d 个种子", len(seeds))
	return seeds, nil
}

// ResolveOutputPath 解析 -o 参数: 空表示输出到控制台
func ResolveOutputPath(flagValue string, flagSet bool) string {
	if !flagSet {
		return ""
	}
	if strings.TrimSpace(flagValue) == "" {
		return DefaultOutputFile
	}
	return flagValue
}

// DefaultOutputFile 只给出 -o 而未指定文件时的输出文件
const DefaultOutputFile = "out.txt"
