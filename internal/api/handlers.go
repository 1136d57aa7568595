package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/model"
)

type createAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required"`
	ParentID    string `json:"parent_id"`
	ParentCode  string `json:"parent_code"`
	Description string `json:"description"`
}

type postEntryRequest struct {
	Date        string              `json:"date" binding:"required"`
	Description string              `json:"description"`
	Reference   string              `json:"reference_document"`
	Lines       []journal.LineInput `json:"lines"`
}

type reverseEntryRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

// queryDate parses the YYYY-MM-DD query parameter key, or returns def when
// it is absent.
func queryDate(c *gin.Context, key string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest(fmt.Sprintf("query parameter %s: %v", key, err))
	}
	return d, nil
}

func today() time.Time { return model.Date(time.Now()) }

func (s *Server) listAccounts(c *gin.Context) error {
	include, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	accts, err := s.books.Accounts.List(c.Request.Context(), include)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accts, "total": len(accts)})
	return nil
}

func (s *Server) createAccount(c *gin.Context) error {
	var req createAccountRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	t, err := model.ParseAccountType(req.Type)
	if err != nil {
		return &accounts.ValidationError{Field: "type", Reason: err.Error()}
	}

	ctx := c.Request.Context()
	parentID := req.ParentID
	if parentID == "" && req.ParentCode != "" {
		parent, err := s.books.Accounts.GetByCode(ctx, req.ParentCode)
		if err != nil {
			return err
		}
		parentID = parent.ID
	}

	acct, err := s.books.Accounts.Create(ctx, accounts.CreateParams{
		Code:        req.Code,
		Name:        req.Name,
		Type:        t,
		ParentID:    parentID,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	s.record("account.create", acct.Code, acct.Name)
	c.JSON(http.StatusCreated, acct)
	return nil
}

func (s *Server) getAccount(c *gin.Context) error {
	acct, err := s.books.ResolveAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, acct)
	return nil
}

func (s *Server) deactivateAccount(c *gin.Context) error {
	ctx := c.Request.Context()
	acct, err := s.books.ResolveAccount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if acct, err = s.books.Accounts.Deactivate(ctx, acct.ID); err != nil {
		return err
	}
	s.record("account.deactivate", acct.Code, "")
	c.JSON(http.StatusOK, acct)
	return nil
}

func (s *Server) reactivateAccount(c *gin.Context) error {
	ctx := c.Request.Context()
	acct, err := s.books.ResolveAccount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if acct, err = s.books.Accounts.Reactivate(ctx, acct.ID); err != nil {
		return err
	}
	s.record("account.reactivate", acct.Code, "")
	c.JSON(http.StatusOK, acct)
	return nil
}

func (s *Server) accountBalance(c *gin.Context) error {
	asOf, err := queryDate(c, "as_of", today())
	if err != nil {
		return err
	}
	ctx := c.Request.Context()
	acct, err := s.books.ResolveAccount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	snap, err := s.books.Balances.BalanceAsOf(ctx, acct.ID, asOf)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, snap)
	return nil
}

func (s *Server) listEntries(c *gin.Context) error {
	from, err := queryDate(c, "from", time.Time{})
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to", time.Time{})
	if err != nil {
		return err
	}
	entries, err := s.books.Journal.List(c.Request.Context(), model.DateRange{From: from, To: to})
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
	return nil
}

func (s *Server) postEntry(c *gin.Context) error {
	var req postEntryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return &journal.InvalidEntryError{Field: "date", Reason: err.Error()}
	}

	entry, err := s.books.Journal.Post(c.Request.Context(), journal.PostParams{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		Lines:       req.Lines,
	})
	if err != nil {
		return err
	}
	s.record("entry.post", entry.Number, fmt.Sprintf("%s, %s", entry.Description, entry.TotalDebit()))
	c.JSON(http.StatusCreated, entry)
	return nil
}

func (s *Server) getEntry(c *gin.Context) error {
	entry, err := s.books.Journal.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, entry)
	return nil
}

func (s *Server) reverseEntry(c *gin.Context) error {
	var req reverseEntryRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}
	var p journal.ReverseParams
	p.Description = req.Description
	if req.Date != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			return &journal.InvalidEntryError{Field: "date", Reason: err.Error()}
		}
		p.Date = d
	}

	number := c.Param("number")
	entry, err := s.books.Journal.Reverse(c.Request.Context(), number, p)
	if err != nil {
		return err
	}
	s.record("entry.reverse", entry.Number, "reverses "+number)
	c.JSON(http.StatusCreated, entry)
	return nil
}

func (s *Server) trialBalance(c *gin.Context) error {
	asOf, err := queryDate(c, "as_of", today())
	if err != nil {
		return err
	}
	tb, err := s.books.Reports.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, tb)
	return nil
}

func (s *Server) incomeStatement(c *gin.Context) error {
	end, err := queryDate(c, "end", today())
	if err != nil {
		return err
	}
	yearStart, err := s.fiscal.FiscalYearStart(end)
	if err != nil {
		return err
	}
	start, err := queryDate(c, "start", yearStart)
	if err != nil {
		return err
	}
	is, err := s.books.Reports.IncomeStatement(c.Request.Context(), start, end)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, is)
	return nil
}

func (s *Server) balanceSheet(c *gin.Context) error {
	asOf, err := queryDate(c, "as_of", today())
	if err != nil {
		return err
	}
	bs, err := s.books.Reports.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, bs)
	return nil
}
