package model

type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	FullName       string `json:"full_name"`
	StorageQuotaMB int64  `json:"storage_quota_mb"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}

// QuotaBytes is the account's byte budget; quotas are stored in whole
// megabytes.
func (u *User) QuotaBytes() int64 {
	return u.StorageQuotaMB * 1024 * 1024
}
