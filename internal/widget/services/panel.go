package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// PlaceholderImg is shown for items without an image.
const PlaceholderImg = "img/placeholder.png"

type Row struct {
	ID           string
	Title        string
	Img          string
	PriceDisplay string
	Qty          int
}

// ViewModel is everything a renderer needs to draw the cart panel.
type ViewModel struct {
	Count        int
	TotalDisplay string
	Rows         []Row
	Empty        bool
}

// Project maps a cart to its panel view model. It has no side effects.
func Project(cart models.Cart, currency string) ViewModel {
	vm := ViewModel{
		Count:        cart.Count(),
		TotalDisplay: currency + cart.Total().StringFixed(2),
		Rows:         make([]Row, 0, len(cart)),
		Empty:        len(cart) == 0,
	}
	for _, it := range cart {
		img := it.Img
		if img == "" {
			img = PlaceholderImg
		}
		vm.Rows = append(vm.Rows, Row{
			ID:           it.ID,
			Title:        it.Title,
			Img:          img,
			PriceDisplay: string(it.Price),
			Qty:          it.Quantity(),
		})
	}
	return vm
}

// Renderer draws the panel. Render may be called from any goroutine.
type Renderer interface {
	Render(vm ViewModel, open bool)
}

// Panel holds the visibility and last projection of the cart panel. It
// works without a renderer.
type Panel struct {
	cart     *CartStore
	currency string

	mu       sync.Mutex
	open     bool
	vm       ViewModel
	renderer Renderer
}

// NewPanel creates the panel and registers it as the cart's view.
func NewPanel(cart *CartStore, currency string, r Renderer) *Panel {
	p := &Panel{cart: cart, currency: currency, renderer: r, vm: Project(nil, currency)}
	cart.SetView(p)
	return p
}

// Refresh re-projects the active cart.
func (p *Panel) Refresh(ctx context.Context) {
	vm := Project(p.cart.Load(ctx), p.currency)
	p.mu.Lock()
	p.vm = vm
	open, r := p.open, p.renderer
	p.mu.Unlock()
	if r != nil {
		r.Render(vm, open)
	}
}

func (p *Panel) Open(ctx context.Context) {
	p.setOpen(true)
	p.Refresh(ctx)
}

func (p *Panel) Close(ctx context.Context) {
	p.setOpen(false)
	p.Refresh(ctx)
}

func (p *Panel) setOpen(v bool) {
	p.mu.Lock()
	p.open = v
	p.mu.Unlock()
}

func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// View is the last projection.
func (p *Panel) View() ViewModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vm
}

// Badge is the unit count shown next to the cart icon.
func (p *Panel) Badge() int {
	return p.View().Count
}
