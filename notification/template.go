package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/samim9090/noirman-ecommerce/models"
)

var confirmationTemplate = template.Must(template.New("order_confirmation").Funcs(template.FuncMap{
	"date": func(c models.OrderConfirmation) string { return c.EstimatedDelivery.Format("02/01/2006") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Georgia, serif; background: #0a0a0a; color: #f5f5f5; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 0 auto; padding: 40px 20px; }
  .header { text-align: center; border-bottom: 1px solid #c9a84c; padding-bottom: 20px; margin-bottom: 30px; }
  .gold { color: #c9a84c; }
  .card { background: #1a1a1a; border: 1px solid rgba(201,168,76,0.2); border-radius: 8px; padding: 20px; margin-bottom: 20px; }
  table { width: 100%; border-collapse: collapse; }
  td, th { padding: 8px; text-align: left; border-bottom: 1px solid rgba(255,255,255,0.05); }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1 class="gold">NOIR MAN</h1></div>
  <div class="card">
    <h2 style="margin-top:0">Order Confirmed!</h2>
    <p>Hello <strong>{{.Name}}</strong>, your order has been placed successfully.</p>
    <p>Order ID: <span class="gold">#{{.Reference}}</span></p>
    <p>Estimated Delivery: <strong>{{date .OrderConfirmation}}</strong></p>
  </div>
  <div class="card">
    <h3 style="margin-top:0; color: #c9a84c;">Order Summary</h3>
    <table>
      <tr><th>Item</th><th>Qty</th><th>Price</th></tr>
      {{range .Items}}<tr><td>{{.Name}}</td><td>{{.Qty}}</td><td>&#8377;{{.Price}}</td></tr>
      {{end}}
    </table>
    {{if gt .Discount 0}}<p style="text-align:right">Discount: -&#8377;{{.Discount}}</p>{{end}}
    <p style="text-align:right">Shipping: &#8377;{{.ShippingPrice}}</p>
    <p style="text-align:right; font-size: 18px;">Total: <span class="gold">&#8377;{{.TotalPrice}}</span></p>
  </div>
</div>
</body>
</html>`))

type confirmationView struct {
	models.OrderConfirmation
	Reference string
}

// OrderReference is the customer-facing order number: the last eight
// characters of the id, uppercased.
func OrderReference(orderID string) string {
	if len(orderID) > 8 {
		orderID = orderID[len(orderID)-8:]
	}
	return strings.ToUpper(orderID)
}

func ConfirmationSubject(orderID string) string {
	return fmt.Sprintf("NOIR MAN - Order Confirmed #%s", OrderReference(orderID))
}

// RenderConfirmation builds the HTML body of the confirmation email.
func RenderConfirmation(c models.OrderConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, confirmationView{OrderConfirmation: c, Reference: OrderReference(c.OrderID)}); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
