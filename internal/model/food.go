package model

// Category groups foods on the menu.
type Category struct {
    ID   uint64 // categories.id
    Name string // categories.name
}

// Food is a menu entry.  Price keeps the display formatting entered by
// staff (for example "$12.50"); the numeric value is parsed when an order
// is priced.
type Food struct {
    ID         uint64  // foods.id
    CategoryID uint64  // foods.category_id
    Name       string  // foods.name
    Image      string  // foods.image
    PrepTime   string  // foods.prep_time
    Rating     float64 // foods.rating
    Price      string  // foods.price
    IsBestSale bool    // foods.is_best_sale
}
