package core

// DefaultCategories returns the shared default categories every user
// sees. The SQLite backend seeds the same set through migrations.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food & Dining", Type: Expense, Icon: "utensils"},
		{Name: "Investments", Type: Income, Icon: "trending-up"},
		{Name: "Shopping", Type: Expense, Icon: "shopping-bag"},
		{Name: "Housing", Type: Expense, Icon: "home"},
		{Name: "Transportation", Type: Expense, Icon: "car"},
		{Name: "Health & Fitness", Type: Expense, Icon: "heart"},
		{Name: "Gifts", Type: Expense, Icon: "gift"},
	}
}
