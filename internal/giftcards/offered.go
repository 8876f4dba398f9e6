package giftcards

// Brand keys. These partition persisted state and must match the merchant
// API's card names exactly.
const (
	BrandVenue        = "Venue USD" // testnet-only brand for development
	BrandAmazon       = "Amazon.com"
	BrandAmazonJapan  = "Amazon.co.jp"
	BrandDelta        = "Delta Air Lines"
	BrandGameStop     = "GameStop"
	BrandGooglePlay   = "Google Play"
	BrandHomeDepot    = "Home Depot"
	BrandMercadoLibre = "Mercado Livre"
	BrandUber         = "Uber"
	BrandXbox         = "Xbox"
)

// offeredGiftCards is the static list of brand configs bundled with the
// client. Pricing and terms are merged in from the remote availability map.
var offeredGiftCards = []BaseCardConfig{
	{
		Brand:                "Venue",
		DisplayName:          "Venue",
		Name:                 BrandVenue,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        false,
		Website:              "venue.com",
	},
	{
		Brand:                "Amazon",
		DisplayName:          "Amazon.com",
		Name:                 BrandAmazon,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        true,
		RedeemURL:            "https://www.amazon.com/gc/redeem?claimCode=",
		Website:              "amazon.com",
	},
	{
		Brand:                "Amazon",
		DisplayName:          "Amazon.co.jp",
		Name:                 BrandAmazonJapan,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        true,
		RedeemURL:            "https://www.amazon.co.jp/gc/redeem?claimCode=",
		Website:              "amazon.co.jp",
	},
	{
		Brand:                "Delta",
		DisplayName:          "Delta Air Lines",
		Name:                 BrandDelta,
		DefaultClaimCodeType: ClaimCodeTypeLink,
		EmailRequired:        false,
		Website:              "delta.com",
	},
	{
		Brand:                "GameStop",
		DisplayName:          "GameStop",
		Name:                 BrandGameStop,
		DefaultClaimCodeType: ClaimCodeTypeBarcode,
		EmailRequired:        false,
		Website:              "gamestop.com",
	},
	{
		Brand:                "Google Play",
		DisplayName:          "Google Play",
		Name:                 BrandGooglePlay,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        false,
		RedeemURL:            "https://play.google.com/redeem?code=",
		Website:              "play.google.com",
	},
	{
		Brand:                "Home Depot",
		DisplayName:          "Home Depot",
		Name:                 BrandHomeDepot,
		DefaultClaimCodeType: ClaimCodeTypeBarcode,
		EmailRequired:        false,
		Website:              "homedepot.com",
	},
	{
		Brand:                "Mercado Livre",
		DisplayName:          "Mercado Livre",
		Name:                 BrandMercadoLibre,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        false,
		Website:              "mercadolivre.com.br",
	},
	{
		Brand:                "Uber",
		DisplayName:          "Uber",
		Name:                 BrandUber,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        false,
		Website:              "uber.com",
	},
	{
		Brand:                "Xbox",
		DisplayName:          "Xbox",
		Name:                 BrandXbox,
		DefaultClaimCodeType: ClaimCodeTypeCode,
		EmailRequired:        false,
		HidePin:              true,
		Website:              "xbox.com",
	},
}
