package graphql

const bankFields = `id user_id name code color is_favorite created_at updated_at`

const (
	listBanksQuery = `query ListBanks($userId: String!) {
  banks(where: {user_id: {_eq: $userId}}, order_by: [{is_favorite: desc}, {name: asc}]) { ` + bankFields + ` }
}`
	getBankQuery = `query GetBank($userId: String!, $id: String!) {
  banks(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { ` + bankFields + ` }
}`
	insertBankMutation = `mutation InsertBank($object: banks_insert_input!) {
  insert_banks_one(object: $object) { ` + bankFields + ` }
}`
	updateBankMutation = `mutation UpdateBank($userId: String!, $id: String!, $set: banks_set_input!) {
  update_banks(where: {user_id: {_eq: $userId}, id: {_eq: $id}}, _set: $set) { returning { ` + bankFields + ` } }
}`
	deleteBankMutation = `mutation DeleteBank($userId: String!, $id: String!) {
  delete_bank_accounts(where: {user_id: {_eq: $userId}, bank_id: {_eq: $id}}) { affected_rows }
  delete_banks(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { affected_rows }
}`
)

const accountFields = `id user_id bank_id name account_number type balance currency created_at updated_at`

const (
	listAccountsQuery = `query ListAccounts($where: bank_accounts_bool_exp!) {
  bank_accounts(where: $where, order_by: [{bank_id: asc}, {name: asc}]) { ` + accountFields + ` }
}`
	getAccountQuery = `query GetAccount($userId: String!, $id: String!) {
  bank_accounts(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { ` + accountFields + ` }
}`
	insertAccountMutation = `mutation InsertAccount($object: bank_accounts_insert_input!) {
  insert_bank_accounts_one(object: $object) { ` + accountFields + ` }
}`
	updateAccountMutation = `mutation UpdateAccount($userId: String!, $id: String!, $set: bank_accounts_set_input!) {
  update_bank_accounts(where: {user_id: {_eq: $userId}, id: {_eq: $id}}, _set: $set) { returning { ` + accountFields + ` } }
}`
	deleteAccountMutation = `mutation DeleteAccount($userId: String!, $id: String!) {
  delete_bank_accounts(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { affected_rows }
}`
)

const transactionFields = `id user_id bank_id account_id type amount currency description transaction_date created_at updated_at`

const (
	listTransactionsQuery = `query ListTransactions($userId: String!) {
  transactions(where: {user_id: {_eq: $userId}}, order_by: [{transaction_date: desc_nulls_last}, {created_at: desc}]) { ` + transactionFields + ` }
}`
	getTransactionQuery = `query GetTransaction($userId: String!, $id: String!) {
  transactions(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { ` + transactionFields + ` }
}`
	insertTransactionMutation = `mutation InsertTransaction($object: transactions_insert_input!) {
  insert_transactions_one(object: $object) { ` + transactionFields + ` }
}`
	updateTransactionMutation = `mutation UpdateTransaction($userId: String!, $id: String!, $set: transactions_set_input!) {
  update_transactions(where: {user_id: {_eq: $userId}, id: {_eq: $id}}, _set: $set) { returning { ` + transactionFields + ` } }
}`
	deleteTransactionMutation = `mutation DeleteTransaction($userId: String!, $id: String!) {
  delete_transactions(where: {user_id: {_eq: $userId}, id: {_eq: $id}}) { affected_rows }
}`
)
