package accounts

import "github.com/cleared-dev/registru/internal/model"

// Entity types with a default chart.
const (
	EntitySRL = "srl"
	EntityPFA = "pfa"
)

// DefaultChart returns the starter chart of accounts for an entity type,
// a subset of the Romanian general chart (OMFP 1802/2014). Parents come
// before their children so the result can be passed to Import.
func DefaultChart(entityType string) []CSVAccount {
	switch entityType {
	case EntityPFA:
		return pfaChart()
	default:
		return srlChart()
	}
}

func acct(code, name string, t model.AccountType, parent, desc string) CSVAccount {
	return CSVAccount{Code: code, Name: name, Type: t, ParentCode: parent, Description: desc, Active: true}
}

func srlChart() []CSVAccount {
	return []CSVAccount{
		acct("101", "Capital", model.AccountTypeEquity, "", "Capital social subscris"),
		acct("117", "Rezultatul reportat", model.AccountTypeEquity, "", "Profit sau pierdere din exercițiile anterioare"),
		acct("121", "Profit sau pierdere", model.AccountTypeEquity, "", "Rezultatul exercițiului"),
		acct("401", "Furnizori", model.AccountTypeLiability, "", ""),
		acct("411", "Clienți", model.AccountTypeAsset, "", ""),
		acct("421", "Personal - salarii datorate", model.AccountTypeLiability, "", ""),
		acct("431", "Asigurări sociale", model.AccountTypeLiability, "", "Contribuții datorate bugetului asigurărilor sociale"),
		acct("442", "Taxa pe valoarea adăugată", model.AccountTypeLiability, "", ""),
		acct("4423", "TVA de plată", model.AccountTypeLiability, "442", ""),
		acct("4426", "TVA deductibilă", model.AccountTypeAsset, "442", ""),
		acct("4427", "TVA colectată", model.AccountTypeLiability, "442", ""),
		acct("444", "Impozitul pe venituri de natura salariilor", model.AccountTypeLiability, "", ""),
		acct("473", "Decontări din operații în curs de clarificare", model.AccountTypeAsset, "", "Încasări și plăți bancare încă neidentificate"),
		acct("512", "Conturi curente la bănci", model.AccountTypeAsset, "", ""),
		acct("5121", "Conturi la bănci în lei", model.AccountTypeAsset, "512", ""),
		acct("531", "Casa", model.AccountTypeAsset, "", ""),
		acct("5311", "Casa în lei", model.AccountTypeAsset, "531", ""),
		acct("601", "Cheltuieli cu materiile prime", model.AccountTypeExpense, "", ""),
		acct("6022", "Cheltuieli privind combustibilii", model.AccountTypeExpense, "", ""),
		acct("624", "Cheltuieli cu transportul de bunuri și personal", model.AccountTypeExpense, "", ""),
		acct("626", "Cheltuieli poștale și taxe de telecomunicații", model.AccountTypeExpense, "", ""),
		acct("641", "Cheltuieli cu salariile personalului", model.AccountTypeExpense, "", ""),
		acct("704", "Venituri din servicii prestate", model.AccountTypeRevenue, "", ""),
		acct("766", "Venituri din dobânzi", model.AccountTypeRevenue, "", ""),
	}
}

// pfaChart drops the share capital and payroll accounts an authorised
// individual does not use.
func pfaChart() []CSVAccount {
	skip := map[string]bool{"101": true, "421": true, "431": true, "444": true, "641": true}
	var out []CSVAccount
	for _, a := range srlChart() {
		if !skip[a.Code] {
			out = append(out, a)
		}
	}
	return out
}
