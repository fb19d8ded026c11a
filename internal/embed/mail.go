package embed

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed mail/*.html
var mailFiles embed.FS

// 邮件模板名称
const (
	MailContractSent      = "contract_sent.html"
	MailContractReminder  = "contract_reminder.html"
	MailContractCompleted = "contract_completed.html"
	MailContractExpired   = "contract_expired.html"
)

// GetMailFS 获取邮件模板文件系统
func GetMailFS() fs.FS {
	sub, err := fs.Sub(mailFiles, "mail")
	if err != nil {
		return mailFiles
	}
	return sub
}

// ParseMailTemplates 解析全部邮件模板，按文件名查找
func ParseMailTemplates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("mail").Funcs(funcs).ParseFS(GetMailFS(), "*.html")
}
