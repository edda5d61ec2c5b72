// Package appfs embeds the SQL migrations, email templates and static assets.
package appfs

import "embed"

//go:embed migrations templates templates/email/_base.txt templates/email/_base.gohtml assets
var FS embed.FS
