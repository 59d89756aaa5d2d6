// =============================================================================
// Sales Journal Converter - Account Mapping Tables
// =============================================================================
//
// Fixed chart-of-accounts mappings used by the transformers. Each table maps
// a business key (payment method, country category, terminal channel) to the
// accounts and labels its journal lines are booked on.
//
// =============================================================================

package converter

import (
	"github.com/shopspring/decimal"
)

// Journal codes.
const (
	JournalClorian     = "CA"
	JournalShopify     = "VES"
	JournalStripeBank  = "B5"
	JournalStripeSales = "VE"
	JournalSkidata     = "CAIS"
)

// =============================================================================
// CLORIAN
// =============================================================================

// PaymentMethod maps a Clorian payment method to its debit account.
type PaymentMethod struct {
	Name    string
	Account string
	Label   string
}

// clorianMethods lists the payment methods in output order.
var clorianMethods = []PaymentMethod{
	{Name: "Carte bancaire", Account: "467300", Label: "Caisse billeterie CLORIAN CB"},
	{Name: "Carte Bancaire (TPE Virtuel)", Account: "467300", Label: "Caisse billeterie CLORIAN CB TPE Virtuel"},
	{Name: clorianCashMethod, Account: "531005", Label: "Caisse billeterie CLORIAN Espèces"},
	{Name: "Voucher", Account: "511200", Label: "Caisse billeterie CLORIAN Voucher"},
	{Name: "Amex", Account: "511319", Label: "Caisse billeterie CLORIAN Amex"},
}

const (
	clorianSheet        = "Resultado consulta"
	clorianMethodColumn = "Méthode de paiement"
	clorianAmountColumn = "Montant (€)"
	clorianHTColumn     = "Montant (HT)"
	clorianVATColumn    = "TVA (€)"
	clorianTotalRow     = "Total"
	clorianCashMethod   = "Espèces"
	clorianLabel        = "Caisse billeterie CLORIAN"
	clorianRevenue      = "706101"
	clorianRevenueTag   = "REVSAPVISIN"
	clorianVAT          = "445712"
	clorianCashClearing = "580005"
	clorianCashAccount  = "531005"
)

// =============================================================================
// SHOPIFY
// =============================================================================

// ShopifyCategory is the tax and geography class of an order.
type ShopifyCategory int

const (
	CategoryDomestic ShopifyCategory = iota
	CategoryRegionalTaxed
	CategoryRegionalUntaxed
	CategoryRestOfWorld
)

func (c ShopifyCategory) String() string {
	switch c {
	case CategoryDomestic:
		return "france"
	case CategoryRegionalTaxed:
		return "ue_avec_tva"
	case CategoryRegionalUntaxed:
		return "ue_sans_tva"
	default:
		return "hors_ue"
	}
}

// shopifyAccountSet holds the credit accounts of one category. An empty VAT
// account means the category books no separate VAT line.
type shopifyAccountSet struct {
	NetSales string
	Shipping string
	VAT      string
}

var shopifyAccounts = map[ShopifyCategory]shopifyAccountSet{
	CategoryDomestic:        {NetSales: "707101", Shipping: "708502", VAT: "445713"},
	CategoryRegionalTaxed:   {NetSales: "707400", Shipping: "708500"},
	CategoryRegionalUntaxed: {NetSales: "707500", Shipping: "708503", VAT: "445713"},
	CategoryRestOfWorld:     {NetSales: "707300", Shipping: "708500"},
}

// regionalCountries is the EU membership list, France excluded, spelled as
// Shopify exports shipping countries.
var regionalCountries = map[string]bool{
	"Germany": true, "Austria": true, "Belgium": true, "Bulgaria": true,
	"Cyprus": true, "Croatia": true, "Denmark": true, "Spain": true,
	"Estonia": true, "Finland": true, "Greece": true, "Hungary": true,
	"Ireland": true, "Italy": true, "Latvia": true, "Lithuania": true,
	"Luxembourg": true, "Malta": true, "Netherlands": true, "Poland": true,
	"Portugal": true, "Czech Republic": true, "Romania": true, "Slovakia": true,
	"Slovenia": true, "Sweden": true,
}

const (
	domesticCountry        = "France"
	shopifyCustomerAccount = "411SHOPI"
	shopifyLabel           = "Shopify"
	shopifyRevenueTag      = "REVOFFPBOOK"
)

// Shopify column names.
const (
	shopifyDate      = "Date"
	shopifyTotal     = "Total Sales"
	shopifyCountry   = "Shipping Country"
	shopifyNetSales  = "Net Sales"
	shopifyShipping  = "Shipping"
	shopifyTax       = "Tax"
	shopifyOrderName = "Order Name"
	shopifyNote      = "Note"
)

// =============================================================================
// STRIPE
// =============================================================================

const (
	stripeClearing   = "411SAP"
	stripeBank       = "512500"
	stripeRevenue    = "706101"
	stripeRevenueTag = "REVSAPVISGR"
	stripeVAT        = "445712"
)

// Stripe column names.
const (
	stripeDate   = "created_date"
	stripeEmail  = "customer_email"
	stripeAmount = "amount_decimal"
)

// stripeVATDivisor turns a TTC amount into HT at the 10% rate.
var stripeVATDivisor = decimal.RequireFromString("1.10")

// =============================================================================
// SKIDATA
// =============================================================================

// skidataChannel is one of the running totals of a parking report.
type skidataChannel int

const (
	channelNone skidataChannel = iota
	channelAutoCard
	channelExitCard
	channelCash
)

func (c skidataChannel) String() string {
	switch c {
	case channelAutoCard:
		return "cb_caisse_auto"
	case channelExitCard:
		return "cb_borne_sortie"
	case channelCash:
		return "especes"
	default:
		return "none"
	}
}

const (
	skidataAutoAccount = "511311"
	skidataExitAccount = "511312"
	skidataCashAccount = "539002"
	skidataVATAccount  = "445711"

	skidataCashPayment = "1"
	skidataCardPayment = "3"
	skidataMinColumns  = 4
)

var (
	skidataAutoCodes = map[string]bool{"11": true, "12": true}
	skidataExitCodes = map[string]bool{"41": true, "42": true, "43": true}

	// Header rows embedded in the data carry one of these words.
	skidataHeaderCodes    = map[string]bool{"code": true, "produit": true, "secteur": true}
	skidataHeaderPayments = map[string]bool{"type": true, "paiement": true}
)
