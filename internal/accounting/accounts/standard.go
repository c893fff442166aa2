package accounts

// Well-known codes of the standard construction chart.
const (
	CodeFixedAssets     = "01"
	CodeCapitalWorks    = "08"
	CodeMaterials       = "10"
	CodeMainProduction  = "20"
	CodeOverhead        = "26"
	CodeSellingExpenses = "44"
	CodeCash            = "50"
	CodeBank            = "51"
	CodePayables        = "60"
	CodeReceivables     = "62"
	CodeTaxes           = "68"
	CodePayroll         = "70"
	CodeCapital         = "80"
	CodeRetainedEarning = "84"
	CodeSales           = "90"
	CodeOtherIncome     = "91"
)

// StandardChart is the chart seeded for a new organization.
var StandardChart = []CreateInput{
	{Code: CodeFixedAssets, Name: "Fixed assets", Type: AccountTypeAsset, Category: "fixed_assets"},
	{Code: CodeCapitalWorks, Name: "Capital construction in progress", Type: AccountTypeAsset, Category: "fixed_assets"},
	{Code: CodeMaterials, Name: "Materials", Type: AccountTypeAsset, Category: "inventory"},
	{Code: CodeMainProduction, Name: "Main production costs", Type: AccountTypeExpense, Category: "production"},
	{Code: CodeOverhead, Name: "General business expenses", Type: AccountTypeExpense, Category: "overhead"},
	{Code: CodeSellingExpenses, Name: "Selling expenses", Type: AccountTypeExpense, Category: "selling"},
	{Code: CodeCash, Name: "Cash on hand", Type: AccountTypeAsset, Category: CategoryCash},
	{Code: CodeBank, Name: "Settlement bank accounts", Type: AccountTypeAsset, Category: CategoryBank},
	{Code: CodePayables, Name: "Settlements with suppliers and contractors", Type: AccountTypeLiability, Category: CategoryPayables},
	{Code: CodeReceivables, Name: "Settlements with customers", Type: AccountTypeAsset, Category: CategoryReceivables},
	{Code: CodeTaxes, Name: "Taxes and levies", Type: AccountTypeLiability, Category: "taxes"},
	{Code: CodePayroll, Name: "Payroll settlements", Type: AccountTypeLiability, Category: "payroll"},
	{Code: CodeCapital, Name: "Charter capital", Type: AccountTypeEquity, Category: "capital"},
	{Code: CodeRetainedEarning, Name: "Retained earnings", Type: AccountTypeEquity, Category: "retained_earnings"},
	{Code: CodeSales, Name: "Sales revenue", Type: AccountTypeRevenue, Category: "sales"},
	{Code: CodeOtherIncome, Name: "Other income", Type: AccountTypeRevenue, Category: "other_income"},
}
