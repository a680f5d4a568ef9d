package models

// HashRecordKind 哈希记录类型
type HashRecordKind string

const (
	HashRecordIntermediate HashRecordKind = "INTERMEDIATE" // 中间哈希（每次爬塔消耗一个）
	HashRecordTerminal     HashRecordKind = "TERMINAL"     // 链尾承诺哈希（公开发布）
)

// HashChain 可证明公平哈希链表
//
// 每条链属于一个 (user, casino, experience) 作用域。
// 每次消耗使用迭代 CurrentIteration-1 的摘要并把指针降到该迭代；
// 指针降到1后链耗尽不可再用。ServerSeed 为链的服务端种子，
// 链公开后玩家可据此回放验证全部结果。
type HashChain struct {
	UUIDModel
	UserID           string `gorm:"type:char(36);not null;index:idx_hash_chain_scope" json:"user_id"`
	CasinoID         string `gorm:"type:char(36);not null;index:idx_hash_chain_scope" json:"casino_id"`
	ExperienceID     string `gorm:"type:char(36);not null;index:idx_hash_chain_scope" json:"experience_id"`
	ServerSeed       string `gorm:"size:64;not null" json:"-"` // 未公开前不可泄露
	TotalIterations  int    `gorm:"not null" json:"total_iterations"`
	CurrentIteration int    `gorm:"not null" json:"current_iteration"`
	Active           bool   `gorm:"not null;default:true;index" json:"active"`
}

// TableName 指定表名
func (HashChain) TableName() string {
	return "hash_chain"
}

// Exhausted 是否已无可消耗的迭代
//
// 下一个被消耗的迭代是 CurrentIteration-1，迭代 0 是公开的
// 链尾承诺，不参与游戏消耗。
func (c *HashChain) Exhausted() bool {
	return c.CurrentIteration < 2
}

// HashRecord 哈希消耗审计记录表
//
// 每次爬塔写入一条，绑定链、摘要、迭代号、玩家种子与游戏元数据。只追加，不修改。
type HashRecord struct {
	UUIDModel
	HashChainID string         `gorm:"type:char(36);not null;index" json:"hash_chain_id"`
	Kind        HashRecordKind `gorm:"size:20;not null" json:"kind"`
	Digest      string         `gorm:"size:64;not null" json:"digest"`
	Iteration   int            `gorm:"not null" json:"iteration"`
	ClientSeed  string         `gorm:"size:32" json:"client_seed"`
	Metadata    JSONMap        `gorm:"type:json" json:"metadata"`
}

// TableName 指定表名
func (HashRecord) TableName() string {
	return "hash_record"
}
