package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest gives every test a fresh browser context so cookies do not leak
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login(username, password string) {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	err = suite.page.Locator("input[name=username]").Fill(username)
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill(password)
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")
}

func (suite *E2ETestSuite) addExpense(date, category, description, amount string) {
	form := suite.page.Locator("#expense-form")
	err := suite.expect.Locator(form).ToBeVisible()
	require.NoError(suite.T(), err, "expense form not visible")

	require.NoError(suite.T(), form.Locator("input[name=date]").Fill(date), "failed to fill date")
	require.NoError(suite.T(), form.Locator("input[name=category]").Fill(category), "failed to fill category")
	require.NoError(suite.T(), form.Locator("input[name=description]").Fill(description), "failed to fill description")
	require.NoError(suite.T(), form.Locator("input[name=amount]").Fill(amount), "failed to fill amount")

	err = form.Locator("button.submit").Click()
	require.NoError(suite.T(), err, "failed to submit expense")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	suite.login("testuser", "testpass123")

	err := suite.expect.Locator(suite.page.Locator(".list-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not land on the home page after login")

	err = suite.expect.Locator(suite.page.Locator(".summary small").First()).ToHaveText("Total spent")
	require.NoError(suite.T(), err, "homepage assertion failed")

	suite.addExpense("2024-03-15", "food", "Lunch Test", "12.50")

	err = suite.expect.Locator(suite.page.Locator(".flash-success")).ToHaveText("Expense added")
	require.NoError(suite.T(), err, "missing confirmation")

	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "expense item count mismatch")

	item := suite.page.Locator(".expense-item").First()
	err = suite.expect.Locator(item.Locator(".expense-details")).ToHaveText("Lunch Test")
	require.NoError(suite.T(), err, "description mismatch")

	err = suite.expect.Locator(item.Locator(".expense-amount")).ToContainText("12.50")
	require.NoError(suite.T(), err, "amount mismatch")

	err = suite.expect.Locator(item.Locator("td").First()).ToHaveText("03-15-2024")
	require.NoError(suite.T(), err, "date should be shown as MM-DD-YYYY")

	// Totals
	_, err = suite.page.Goto(appURL + "/calculate")
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".total-amount")).ToHaveText("12.50")
	require.NoError(suite.T(), err, "total mismatch")

	err = suite.expect.Locator(suite.page.Locator(".year-row")).ToContainText("2024")
	require.NoError(suite.T(), err, "yearly row missing")

	err = suite.expect.Locator(suite.page.Locator(".month-row")).ToContainText("03-2024")
	require.NoError(suite.T(), err, "monthly row missing")

	// Delete from the list view
	_, err = suite.page.Goto(appURL + "/view")
	require.NoError(suite.T(), err)

	err = suite.page.Locator(".delete-btn").First().Click()
	require.NoError(suite.T(), err, "failed to click delete")

	err = suite.expect.Locator(suite.page.Locator(".flash-success")).ToHaveText("Expense deleted")
	require.NoError(suite.T(), err, "missing delete confirmation")

	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "expense should be gone")
}

func (suite *E2ETestSuite) TestRegisterAndIsolation() {
	err := suite.page.Locator("a[href='/register']").Click()
	require.NoError(suite.T(), err, "failed to open register page")

	require.NoError(suite.T(), suite.page.Locator("input[name=username]").Fill("e2e-newcomer"))
	require.NoError(suite.T(), suite.page.Locator("input[name=password]").Fill("newcomer-pass"))
	require.NoError(suite.T(), suite.page.Locator(".register-btn").Click())

	err = suite.expect.Locator(suite.page.Locator(".flash-success")).ToHaveText("User registered successfully")
	require.NoError(suite.T(), err, "registration should succeed")

	suite.login("e2e-newcomer", "newcomer-pass")

	err = suite.expect.Locator(suite.page.Locator(".whoami")).ToHaveText("e2e-newcomer")
	require.NoError(suite.T(), err, "not logged in as the new user")

	// A fresh account sees none of the other user's expenses
	_, err = suite.page.Goto(appURL + "/view")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator(".expense-item")).ToHaveCount(0)
	require.NoError(suite.T(), err, "new user must start with an empty list")

	err = suite.page.Locator(".logout").Click()
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "logout should land on the login page")
}

func (suite *E2ETestSuite) TestLoginFailure() {
	suite.login("testuser", "wrong-password")

	err := suite.expect.Locator(suite.page.Locator(".flash-error")).ToHaveText("Invalid username or password")
	require.NoError(suite.T(), err, "expected a generic login error")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
