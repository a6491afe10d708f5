package identity

// Profile is the signed-in user as the identity collaborator describes it.
type Profile struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Zip         string `json:"zip"`
}

// NameOrGuest returns the display name, or "Guest" when the profile has none.
func (p Profile) NameOrGuest() string {
	if p.DisplayName == "" {
		return "Guest"
	}

	return p.DisplayName
}
