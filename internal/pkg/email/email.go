package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/lzh9102/zhixue_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendEarningSettled 发送月度收益结算通知
func (s *Service) SendEarningSettled(to, month string, points, earnings float64) error {
	subject := fmt.Sprintf("%s 收益结算通知 - 知学平台", month)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">月度收益已结算</h2>
        <p>您好，</p>
        <p>您 %s 的课程收益已完成结算：</p>
        <div style="background-color: #f3f4f6; padding: 15px; margin: 20px 0;">
            <p>学习积分：<strong>%.2f</strong></p>
            <p>结算收益：<strong>¥%.2f</strong></p>
        </div>
        <p>收益已计入您的可提现余额，可随时在讲师中心发起提现。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, month, points, earnings)

	return s.sendHTML(to, subject, body)
}

// SendWithdrawalProcessed 发送提现完成通知
func (s *Service) SendWithdrawalProcessed(to string, amount float64) error {
	subject := "提现已完成 - 知学平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">提现已完成</h2>
        <p>您好，</p>
        <p>您申请的提现 <strong>¥%.2f</strong> 已处理完成，请注意查收。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, amount)

	return s.sendHTML(to, subject, body)
}

// SendWithdrawalRejected 发送提现驳回通知
func (s *Service) SendWithdrawalRejected(to string, amount float64) error {
	subject := "提现申请未通过 - 知学平台"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">提现申请未通过</h2>
        <p>您好，</p>
        <p>您申请的提现 <strong>¥%.2f</strong> 未通过审核，金额未从余额扣除。</p>
        <p>如有疑问请联系平台客服。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>
`, amount)

	return s.sendHTML(to, subject, body)
}

// sendHTML 发送 HTML 邮件
func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
