package fan

// Fan describes a paying supporter of an artist
type Fan struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	DisplayName string `json:"displayName"`
}
