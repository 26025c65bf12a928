// components/booking/presenter.go
//
// Presenter for HTTP drafts.
//
// Over HTTP the client pulls state instead of being pushed to, so most
// presenter calls only log; the snapshot already carries the login flag,
// the notice, and the confirmation.  NavigateBack is the exception: an
// abandoned draft is dropped from the store at once.

package booking

import (
	"go.uber.org/zap"

	"github.com/yanizio/xplora/internal/booking"
	"github.com/yanizio/xplora/internal/draft"
)

type presenter struct {
	id     string
	drafts *draft.Store
	log    *zap.SugaredLogger
}

var _ booking.Presenter = (*presenter)(nil)

func (p *presenter) OpenLogin() {
	p.log.Debugw("login required", "draft", p.id)
}

func (p *presenter) ShowNotice(n booking.Notice) {
	p.log.Infow("notice shown", "draft", p.id, "failure", n.Failure.String(), "title", n.Title)
}

func (p *presenter) ShowConfirmation(booking.Confirmation) {
	p.log.Debugw("confirmation ready", "draft", p.id)
}

func (p *presenter) NavigateBack() {
	p.drafts.Delete(p.id)
	p.log.Debugw("draft abandoned", "draft", p.id)
}
