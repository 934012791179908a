// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package topics

import "strings"

// Category names used by Categorize.
const (
	CategorySpring      = "Spring系列"
	CategoryDatabase    = "数据库"
	CategoryMiddleware  = "中间件"
	CategoryConcurrency = "JVM/并发"
	CategoryDistributed = "分布式"
	CategoryOther       = "其他"
)

var categoryRules = []struct {
	name     string
	keywords []string
}{
	{CategorySpring, []string{"spring"}},
	{CategoryDatabase, []string{"mysql", "redis", "数据库", "索引", "事务", "mvcc"}},
	{CategoryMiddleware, []string{"kafka", "rabbitmq", "mq", "nginx"}},
	{CategoryConcurrency, []string{"jvm", "juc", "线程", "锁", "synchronized", "volatile"}},
	{CategoryDistributed, []string{"分布式", "微服务", "限流", "熔断", "docker", "kubernetes"}},
}

// Category returns the first category whose keyword occurs in topic.
func Category(topic string) string {
	lower := strings.ToLower(topic)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return CategoryOther
}

// Categorize counts topics per category.
func Categorize(topics []string) map[string]int {
	counts := make(map[string]int)
	for _, topic := range topics {
		counts[Category(topic)]++
	}
	return counts
}
