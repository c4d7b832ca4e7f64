package memory

// Option 网络选项
type Option func(*Network)

// WithRejectedNames 创建会话服务端时拒绝这些名称（返回 ErrInvalidSessionName）
func WithRejectedNames(names ...string) Option {
	return func(n *Network) {
		for _, name := range names {
			n.rejected[name] = struct{}{}
		}
	}
}

// WithRemoveFailures 移除这些名称的会话服务端时返回错误
func WithRemoveFailures(names ...string) Option {
	return func(n *Network) {
		for _, name := range names {
			n.removeFail[name] = struct{}{}
		}
	}
}
