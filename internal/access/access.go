// Package access decides what the signed-in identity may see and trigger.
//
// These checks only gate presentation. The backend authorizes every write
// on its own, so a client that skips them gains nothing: writes are still
// refused with 401/403.
package access

import "github.com/RaduPandor/Blog-Web-App/internal/models"

// CanEditOrDelete reports whether identity may edit or delete post: its
// author or any admin. An absent identity or post yields false.
func CanEditOrDelete(identity *models.Identity, post *models.Post) bool {
	if identity == nil || post == nil {
		return false
	}
	if identity.ID != "" && identity.ID == post.AuthorID {
		return true
	}
	return identity.HasRole(models.RoleAdmin)
}

// CanAccessAdminPanel reports whether identity may manage users.
func CanAccessAdminPanel(identity *models.Identity) bool {
	return identity.HasRole(models.RoleAdmin)
}
