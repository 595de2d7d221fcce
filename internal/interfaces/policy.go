package interfaces

// PointsPolicy 积分规则是外部策略：账本只负责套用，不决定什么动作值多少分
type PointsPolicy interface {
	// PointsForApprovedReview 一条评价审核通过时的积分
	PointsForApprovedReview() int
	// PointsForHelpfulMark 评价被标记有用时作者获得的积分
	PointsForHelpfulMark() int
	// ContestBonus 活跃赛事期内审核通过的额外积分
	ContestBonus() int
}
