package models

// ConditionTag links a product to a skin condition label. Set semantics.
type ConditionTag struct {
	ProductID string `gorm:"primaryKey;column:product_id" json:"product_id"`
	Condition string `gorm:"primaryKey;column:condition;index" json:"condition"`
}

func (ConditionTag) TableName() string {
	return "condition_tags"
}
