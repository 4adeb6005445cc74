package entity

// AccountPatch is a tagged partial update: nil fields are left untouched.
// Role is deliberately absent; role changes go through the role-change
// workflow so they are always audited.
type AccountPatch struct {
	Email              *string `json:"email"`
	Nickname           *string `json:"nickname"`
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Bio                *string `json:"bio"`
	ProfilePictureURL  *string `json:"profile_picture_url"`
	LinkedinProfileURL *string `json:"linkedin_profile_url"`
	GithubProfileURL   *string `json:"github_profile_url"`
	IsProfessional     *bool   `json:"is_professional"`
	Password           *string `json:"password"`

	// HashedPassword is filled in by the service after hashing Password;
	// it is never accepted from a client.
	HashedPassword *string `json:"-"`
}

// Empty reports whether the patch carries no fields at all.
func (p *AccountPatch) Empty() bool {
	return p.Email == nil && p.Nickname == nil && p.FirstName == nil &&
		p.LastName == nil && p.Bio == nil && p.ProfilePictureURL == nil &&
		p.LinkedinProfileURL == nil && p.GithubProfileURL == nil &&
		p.IsProfessional == nil && p.Password == nil
}
