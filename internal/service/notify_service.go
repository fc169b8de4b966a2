package service

import (
	"fmt"
	"strings"

	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/mail"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/pdf"
	"go.uber.org/zap"
)

// NotifyService sends the receipt and operator emails. Everything here is
// best-effort: failures are logged, never returned, so they cannot break
// the reconciliation flow.
type NotifyService interface {
	SendReceipt(p *model.Purchase)
	NotifyAdmin(subject, body string)
}

type notifyService struct {
	mailer     mail.Mailer
	receipts   pdf.ReceiptRenderer
	adminEmail string
}

func NewNotifyService(mailer mail.Mailer, receipts pdf.ReceiptRenderer, cfg *config.Config) NotifyService {
	return &notifyService{mailer: mailer, receipts: receipts, adminEmail: cfg.AdminEmail}
}

func (s *notifyService) SendReceipt(p *model.Purchase) {
	if p == nil || p.Username == "" {
		return
	}

	var attachment *mail.Attachment
	data := pdf.ReceiptData{
		PONumber:  p.PONumber,
		Username:  p.Username,
		Amount:    p.Amount,
		Currency:  p.Currency,
		OrderDate: p.OrderDate.Format("2006-01-02"),
		BillTo:    p.Username,
	}
	for _, it := range p.LineItems {
		data.Items = append(data.Items, pdf.ReceiptItem{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	if bytes, err := s.receipts.Render(data); err != nil {
		// The receipt still goes out, just without the attachment.
		zap.L().Warn("receipt pdf generation failed", zap.Uint64("po_number", p.PONumber), zap.Error(err))
	} else {
		attachment = &mail.Attachment{
			Filename:    fmt.Sprintf("receipt-%d.pdf", p.PONumber),
			ContentType: "application/pdf",
			Data:        bytes,
		}
	}

	var items strings.Builder
	for _, it := range p.LineItems {
		fmt.Fprintf(&items, "<li>%s &times; %d @ %s</li>", it.Name, it.Quantity, it.UnitPrice)
	}
	body := fmt.Sprintf(
		"<p>Thank you for your order.</p><p>Order #%d, total %s %s.</p><ul>%s</ul>",
		p.PONumber, p.Amount, p.Currency, items.String(),
	)

	if err := s.mailer.Send(p.Username, fmt.Sprintf("Your receipt for order #%d", p.PONumber), body, attachment); err != nil {
		zap.L().Error("receipt email failed", zap.Uint64("po_number", p.PONumber), zap.Error(err))
	}
}

func (s *notifyService) NotifyAdmin(subject, body string) {
	if s.adminEmail == "" {
		zap.L().Warn("admin notification dropped, ADMIN_EMAIL not set", zap.String("subject", subject))
		return
	}
	if err := s.mailer.Send(s.adminEmail, subject, body, nil); err != nil {
		zap.L().Error("admin notification failed", zap.String("subject", subject), zap.Error(err))
	}
}
