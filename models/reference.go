package models

type City struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Region struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	CityID int    `json:"cityId"`
}

type Amenity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
