package entities

// User is the subset of the account service's users table the chat reads.
type User struct {
	ID    string `gorm:"type:text;primaryKey"`
	Name  string `gorm:"type:text;not null"`
	Email string `gorm:"type:text;not null;uniqueIndex"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}
