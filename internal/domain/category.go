package domain

// Category classifies expenses and budgets. The two entity kinds share
// the same fixed set of values and are matched by value equality.
type Category string

// Valid categories
const (
	CategoryTravel         Category = "Travel"
	CategoryMeals          Category = "Meals"
	CategoryOfficeSupplies Category = "Office Supplies"
	CategorySoftware       Category = "Software"
	CategoryHardware       Category = "Hardware"
	CategoryTraining       Category = "Training"
	CategoryOther          Category = "Other"
)

// Categories returns every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryTravel,
		CategoryMeals,
		CategoryOfficeSupplies,
		CategorySoftware,
		CategoryHardware,
		CategoryTraining,
		CategoryOther,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTravel, CategoryMeals, CategoryOfficeSupplies,
		CategorySoftware, CategoryHardware, CategoryTraining, CategoryOther:
		return true
	}
	return false
}
