package entity

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	reasonRequired = "Missing data for required field."
	maxNameLength  = 100
	maxPageSize    = 100

	// bcrypt refuses longer passwords.
	maxPasswordBytes = 72
	// Largest value of a NUMERIC(12, 2) column.
	maxPrice = 9999999999.99
)

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims whitespace and lower-cases the email.
func (in *RegisterInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in RegisterInput) Validate() error {
	errs := FieldErrors{}
	switch n := utf8.RuneCountInString(in.Username); {
	case n == 0:
		errs.Add("username", reasonRequired)
	case n > maxNameLength:
		errs.Add("username", "Longer than maximum length 100.")
	}
	validateEmail(errs, in.Email)
	switch {
	case in.Password == "":
		errs.Add("password", reasonRequired)
	case utf8.RuneCountInString(in.Password) < 6:
		errs.Add("password", "Shorter than minimum length 6.")
	case len(in.Password) > maxPasswordBytes:
		errs.Add("password", "Longer than maximum length 72 bytes.")
	}
	return errs.Err()
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in LoginInput) Validate() error {
	errs := FieldErrors{}
	validateEmail(errs, in.Email)
	if in.Password == "" {
		errs.Add("password", reasonRequired)
	}
	return errs.Err()
}

func validateEmail(errs FieldErrors, email string) {
	if email == "" {
		errs.Add("email", reasonRequired)
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.Add("email", "Not a valid email address.")
	}
}

// ProductInput is the body of a product creation. Price and Stock are
// pointers so a missing field can be told apart from zero.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    string   `json:"image_url"`
	Category    string   `json:"category"`
}

func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

func (in ProductInput) Validate() error {
	errs := FieldErrors{}
	if in.Name == "" {
		errs.Add("name", reasonRequired)
	} else {
		validateName(errs, in.Name)
	}
	if in.Price == nil {
		errs.Add("price", reasonRequired)
	} else {
		validatePrice(errs, *in.Price)
	}
	if in.Stock == nil {
		errs.Add("stock", reasonRequired)
	} else {
		validateStock(errs, *in.Stock)
	}
	validateImageURL(errs, in.ImageURL)
	validateCategory(errs, in.Category)
	return errs.Err()
}

// Product builds the entity. Call only after Validate succeeded.
func (in ProductInput) Product() *Product {
	return &Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
	}
}

// ProductPatch lists the product fields an update may touch. Nil means
// "leave as is".
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    *string  `json:"image_url"`
	Category    *string  `json:"category"`
}

func (p *ProductPatch) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(p.Name)
	trim(p.ImageURL)
	trim(p.Category)
}

func (p ProductPatch) Validate() error {
	errs := FieldErrors{}
	if p.Name != nil {
		if *p.Name == "" {
			errs.Add("name", "Length must be between 1 and 100.")
		} else {
			validateName(errs, *p.Name)
		}
	}
	if p.Price != nil {
		validatePrice(errs, *p.Price)
	}
	if p.Stock != nil {
		validateStock(errs, *p.Stock)
	}
	if p.ImageURL != nil {
		validateImageURL(errs, *p.ImageURL)
	}
	if p.Category != nil {
		validateCategory(errs, *p.Category)
	}
	return errs.Err()
}

// Apply copies every set field onto dst.
func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
}

func validateName(errs FieldErrors, name string) {
	if utf8.RuneCountInString(name) > maxNameLength {
		errs.Add("name", "Length must be between 1 and 100.")
	}
}

func validatePrice(errs FieldErrors, price float64) {
	switch {
	case price <= 0:
		errs.Add("price", "Must be greater than 0.")
	case price > maxPrice:
		errs.Add("price", "Must be less than or equal to 9999999999.99.")
	case decimal.NewFromFloat(price).Exponent() < -2:
		errs.Add("price", "Must have at most 2 decimal places.")
	}
}

func validateStock(errs FieldErrors, stock int) {
	if stock < 0 {
		errs.Add("stock", "Must be greater than or equal to 0.")
	}
}

func validateImageURL(errs FieldErrors, raw string) {
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("image_url", "Not a valid URL.")
	}
}

func validateCategory(errs FieldErrors, category string) {
	if utf8.RuneCountInString(category) > maxNameLength {
		errs.Add("category", "Longer than maximum length 100.")
	}
}

// ValidateStock checks an absolute stock value.
func ValidateStock(stock int) error {
	errs := FieldErrors{}
	validateStock(errs, stock)
	return errs.Err()
}

// CartItemInput is the body of POST /cart.
type CartItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (in CartItemInput) Validate() error {
	errs := FieldErrors{}
	if in.ProductID <= 0 {
		errs.Add("product_id", reasonRequired)
	}
	validateQuantity(errs, "quantity", in.Quantity)
	return errs.Err()
}

// ValidateQuantity checks a cart or order line quantity.
func ValidateQuantity(quantity int) error {
	errs := FieldErrors{}
	validateQuantity(errs, "quantity", quantity)
	return errs.Err()
}

func validateQuantity(errs FieldErrors, field string, quantity int) {
	if quantity < 1 {
		errs.Add(field, "Must be greater than or equal to 1.")
	}
}

// OrderLineInput is one requested line of POST /orders.
type OrderLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderInput is the body of POST /orders.
type CreateOrderInput struct {
	Items []OrderLineInput `json:"items"`
}

func (in CreateOrderInput) Validate() error {
	errs := FieldErrors{}
	if len(in.Items) == 0 {
		errs.Add("items", "Order must have at least one item.")
	}
	for _, line := range in.Items {
		if line.ProductID <= 0 {
			errs.Add("items.product_id", reasonRequired)
		}
		validateQuantity(errs, "items.quantity", line.Quantity)
	}
	return errs.Err()
}

var productSortFields = map[string]bool{"name": true, "price": true, "created_at": true}

func (f ProductFilter) Validate() error {
	errs := FieldErrors{}
	if f.SortBy != "" && !productSortFields[f.SortBy] {
		errs.Add("sort", "Must be one of: name, price, created_at.")
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		errs.Add("min_price", "Must be greater than or equal to 0.")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		errs.Add("max_price", "Must be greater than or equal to 0.")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		errs.Add("min_price", "Must not exceed max_price.")
	}
	if f.Limit < 0 || f.Limit > maxPageSize {
		errs.Add("limit", "Must be between 1 and 100.")
	}
	if f.Page < 0 {
		errs.Add("page", "Must be greater than or equal to 1.")
	}
	return errs.Err()
}

// Offset returns the row offset for a paginated listing.
func (f ProductFilter) Offset() int {
	if f.Limit <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
