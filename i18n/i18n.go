/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var languageMap = map[string]language.Tag{"en": language.English, "zh": language.Chinese}

// Progress lines printed to stdout. Keys are the English format strings.
const (
	MsgStartStep     = "Start %s (%d/%d)"
	MsgFinishStep    = "%s completed [%s]"
	MsgFailStep      = "%s failed with exit status %d [%s]"
	MsgSkipStep      = "Skipping %s"
	MsgDryRun        = "Would run: %s"
	MsgLinesCounted  = "%d lines of Luau code under analysis"
	MsgRunSucceeded  = "Analysis finished successfully"
	MsgRunFailed     = "Analysis aborted with exit status %d"
	MsgIgnoredTarget = "Target %s is excluded by ignore pattern %s"
)

var zhCatalog = map[string]string{
	MsgStartStep:     "开始%s (%d/%d)",
	MsgFinishStep:    "%s完成 [%s]",
	MsgFailStep:      "%s失败，退出状态 %d [%s]",
	MsgSkipStep:      "跳过%s",
	MsgDryRun:        "将要执行: %s",
	MsgLinesCounted:  "待分析的 Luau 代码共 %d 行",
	MsgRunSucceeded:  "分析成功完成",
	MsgRunFailed:     "分析中止，退出状态 %d",
	MsgIgnoredTarget: "目标 %s 被忽略模式 %s 排除",
}

func init() {
	for key, translation := range zhCatalog {
		if err := message.SetString(language.Chinese, key, translation); err != nil {
			panic(err)
		}
		if err := message.SetString(language.English, key, key); err != nil {
			panic(err)
		}
	}
}

func GetPrinter(lang string) *message.Printer {
	langTag, exist := languageMap[lang]
	if !exist {
		langTag = languageMap["en"]
	}
	return message.NewPrinter(langTag)
}

func Supported(lang string) bool {
	_, exist := languageMap[lang]
	return exist
}
