// Package common 定义全局哨兵错误，供 service 与 api 层区分错误类别并映射 HTTP 状态码。
package common

import "errors"

// 调用方身份与权限
var (
	// ErrUnauthenticated 缺少或无效的调用方身份
	ErrUnauthenticated = errors.New("未认证的调用方")
	// ErrForbidden 调用方角色不足以执行该操作
	ErrForbidden = errors.New("没有执行该操作的权限")
)

// 上游内容分析服务
var (
	// ErrUpstreamRateLimited 分析服务返回 429，可稍后重试
	ErrUpstreamRateLimited = errors.New("内容分析服务限流")
	// ErrUpstreamPaymentRequired 分析服务返回 402，配额耗尽，需要人工介入
	ErrUpstreamPaymentRequired = errors.New("内容分析服务配额耗尽")
	// ErrUpstreamUnavailable 分析服务不可用或响应异常，按存疑处理
	ErrUpstreamUnavailable = errors.New("内容分析服务不可用")
)

// 业务校验与状态
var (
	// ErrValidation 请求字段校验失败（任何写入之前同步拒绝）
	ErrValidation = errors.New("请求参数校验失败")
	// ErrNotFound 目标实体不存在
	ErrNotFound = errors.New("目标实体不存在")
	// ErrInvalidTransition 非法的状态流转（如 deleted 后再审批）
	ErrInvalidTransition = errors.New("非法的状态流转")
	// ErrContestEnded 赛事已结束，不可重复结束或回到 active
	ErrContestEnded = errors.New("赛事已结束")
)
