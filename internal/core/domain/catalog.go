package domain

type Organization struct {
	ID               string   `db:"id"`
	Name             string   `db:"name"`
	Active           bool     `db:"active"`
	Description      string   `db:"description"`
	MonthlyHourLimit *float64 `db:"monthly_hour_limit"`
}

type SpaceTag struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Color string `db:"color"`
}

type Space struct {
	ID          string
	Name        string
	Description string
	Capacity    int
	AllowedDays []int64
	OpenTime    string
	CloseTime   string
	Tag         *SpaceTag
}
